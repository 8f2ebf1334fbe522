package validations

import (
	"context"

	domainChat "github.com/eduardoaugusto358-droid/BotNovo/domains/chat"
	pkgError "github.com/eduardoaugusto358-droid/BotNovo/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateSendMessage(ctx context.Context, request domainChat.SendMessageRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ConversationID, validation.Required),
		validation.Field(&request.Content, validation.Required),
		validation.Field(&request.MessageType, validation.In("", "text", "image", "document", "audio", "video")),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
