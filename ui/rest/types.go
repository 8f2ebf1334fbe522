package rest

import (
	pkgError "github.com/eduardoaugusto358-droid/BotNovo/pkg/error"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// accountID resolves the acting account. Authentication itself lives in the
// upstream proxy; it injects the account id per request.
func accountID(c *fiber.Ctx) string {
	id := c.Get("X-Account-ID")
	if id == "" {
		id = c.Query("account_id")
	}
	return id
}

// requireAccountID panics with a validation error when no account id was
// provided; the recovery middleware turns that into a 400.
func requireAccountID(c *fiber.Ctx) string {
	id := accountID(c)
	if id == "" {
		utils.PanicIfNeeded(pkgError.ValidationError("account id: cannot be blank."))
	}
	return id
}
