package validations

import (
	"context"

	domainInstance "github.com/eduardoaugusto358-droid/BotNovo/domains/instance"
	pkgError "github.com/eduardoaugusto358-droid/BotNovo/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateCreateInstance(ctx context.Context, request domainInstance.CreateRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&request.Phone, validation.Length(0, 20)),
		validation.Field(&request.WebhookURL, validation.Length(0, 500)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
