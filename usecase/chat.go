package usecase

import (
	"context"
	"errors"

	domainChat "github.com/eduardoaugusto358-droid/BotNovo/domains/chat"
	"github.com/eduardoaugusto358-droid/BotNovo/domains/gateway"
	domainInstance "github.com/eduardoaugusto358-droid/BotNovo/domains/instance"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/clock"
	pkgError "github.com/eduardoaugusto358-droid/BotNovo/pkg/error"
	"github.com/eduardoaugusto358-droid/BotNovo/validations"
	"github.com/google/uuid"
)

type chatService struct {
	chats     domainChat.IChatRepository
	instances domainInstance.IInstanceRepository
	gateway   gateway.ISessionGateway
	clock     clock.Clock
}

func NewChatService(
	chats domainChat.IChatRepository,
	instances domainInstance.IInstanceRepository,
	gw gateway.ISessionGateway,
	clk clock.Clock,
) domainChat.IChatUsecase {
	return &chatService{
		chats:     chats,
		instances: instances,
		gateway:   gw,
		clock:     clk,
	}
}

func (service *chatService) ListConversations(ctx context.Context, userID, instanceID string) ([]domainChat.Conversation, error) {
	return service.chats.ListByUser(ctx, userID, instanceID)
}

func (service *chatService) GetConversation(ctx context.Context, userID, id string) (domainChat.Conversation, error) {
	conv, err := service.chats.GetWithMessages(ctx, id, userID)
	if err != nil {
		return domainChat.Conversation{}, mapConversationErr(err)
	}
	return *conv, nil
}

// SendMessage pushes a from-me message through the gateway and records it
// with the gateway-assigned message id.
func (service *chatService) SendMessage(ctx context.Context, userID string, request domainChat.SendMessageRequest) (domainChat.Message, error) {
	if err := validations.ValidateSendMessage(ctx, request); err != nil {
		return domainChat.Message{}, err
	}

	conv, err := service.chats.GetByIDForUser(ctx, request.ConversationID, userID)
	if err != nil {
		return domainChat.Message{}, mapConversationErr(err)
	}
	if conv.Contact == nil {
		return domainChat.Message{}, pkgError.InternalError("conversation has no contact")
	}

	inst, err := service.instances.GetByID(ctx, conv.InstanceID)
	if err != nil {
		if errors.Is(err, domainInstance.ErrInstanceNotFound) {
			return domainChat.Message{}, pkgError.NotFoundError("instance not found")
		}
		return domainChat.Message{}, err
	}

	messageType := request.MessageType
	if messageType == "" {
		messageType = "text"
	}

	result, err := service.gateway.SendMessage(ctx, inst.SessionID, conv.Contact.Phone, request.Content, messageType)
	if err != nil {
		return domainChat.Message{}, err
	}

	now := service.clock.Now()
	msg := domainChat.Message{
		ID:                uuid.New().String(),
		ConversationID:    conv.ID,
		InstanceID:        inst.ID,
		WhatsappMessageID: result.MessageID,
		Content:           request.Content,
		MessageType:       messageType,
		IsFromMe:          true,
		Status:            domainChat.MessageStatusSent,
		Timestamp:         now,
		CreatedAt:         now,
	}
	if err := service.chats.CreateMessage(ctx, &msg); err != nil {
		return domainChat.Message{}, err
	}
	if err := service.chats.Touch(ctx, conv.ID, now); err != nil {
		return domainChat.Message{}, err
	}

	return msg, nil
}

func (service *chatService) MarkRead(ctx context.Context, userID, id string) error {
	return mapConversationErr(service.chats.MarkRead(ctx, id, userID))
}

func (service *chatService) DeleteConversation(ctx context.Context, userID, id string) error {
	return mapConversationErr(service.chats.Delete(ctx, id, userID))
}

func mapConversationErr(err error) error {
	if errors.Is(err, domainChat.ErrConversationNotFound) {
		return pkgError.NotFoundError("conversation not found")
	}
	return err
}
