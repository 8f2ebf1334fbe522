package cmd

import (
	"os"
	"strings"
	"time"

	coreconfig "github.com/eduardoaugusto358-droid/BotNovo/core/config"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/utils"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "botnovo",
	Short: "WhatsApp instance manager and conversation backend",
	Long: `BotNovo manages WhatsApp instances through a Baileys-compatible
session gateway and ingests its webhook events into conversations.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	cobra.OnInitialize(initEnvConfig)
}

// initEnvConfig loads the structured configuration and lets viper-bound
// environment variables override it, mirroring how container deployments
// inject settings.
func initEnvConfig() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	viper.AutomaticEnv()
	if envPort := viper.GetString("app_port"); envPort != "" {
		cfg.App.Port = envPort
	}
	if viper.GetBool("app_debug") {
		cfg.App.Debug = true
	}
	if envBaseURL := viper.GetString("app_base_url"); envBaseURL != "" {
		cfg.App.BaseURL = envBaseURL
	}
	if envGateway := viper.GetString("baileys_api_url"); envGateway != "" {
		cfg.Gateway.BaseURL = envGateway
	}
	if envOrigins := viper.GetString("app_cors_allowed_origins"); envOrigins != "" {
		cfg.App.CorsAllowedOrigins = strings.Split(envOrigins, ",")
	}

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
