package main

import "github.com/eduardoaugusto358-droid/BotNovo/cmd"

func main() {
	cmd.Execute()
}
