package usecase

import (
	"context"
	"errors"
	"time"

	domainChat "github.com/eduardoaugusto358-droid/BotNovo/domains/chat"
	domainInstance "github.com/eduardoaugusto358-droid/BotNovo/domains/instance"
	"github.com/eduardoaugusto358-droid/BotNovo/domains/webhook"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/clock"
	pkgError "github.com/eduardoaugusto358-droid/BotNovo/pkg/error"
	"github.com/sirupsen/logrus"
)

type webhookService struct {
	instances domainInstance.IInstanceRepository
	lifecycle domainInstance.IInstanceUsecase
	chats     domainChat.IChatRepository
	clock     clock.Clock
}

// NewWebhookService builds the ingestion pipeline. Status events delegate to
// the lifecycle manager; message events go straight to the chat store as one
// atomic unit each.
func NewWebhookService(
	instances domainInstance.IInstanceRepository,
	lifecycle domainInstance.IInstanceUsecase,
	chats domainChat.IChatRepository,
	clk clock.Clock,
) webhook.IWebhookUsecase {
	return &webhookService{
		instances: instances,
		lifecycle: lifecycle,
		chats:     chats,
		clock:     clk,
	}
}

// Process applies one gateway event to the store. Events are independent
// network calls with no ordering guarantee, so nothing here blocks on
// anything but its own short transaction.
func (service *webhookService) Process(ctx context.Context, instanceID string, event webhook.Event) (webhook.Result, error) {
	inst, err := service.instances.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, domainInstance.ErrInstanceNotFound) {
			return "", pkgError.NotFoundError("instance not found")
		}
		return "", err
	}

	log := logrus.WithFields(logrus.Fields{
		"instance_id": inst.ID,
		"event":       string(event.Kind),
	})

	switch event.Kind {
	case webhook.KindPairingCode:
		if event.PairingCode.QRCode == "" {
			log.Warn("[WEBHOOK] pairing_code event without code, nothing to store")
			return webhook.ResultProcessed, nil
		}
		if err := service.lifecycle.ApplyPairingCode(ctx, inst.ID, event.PairingCode.QRCode); err != nil {
			return "", err
		}
		log.Info("[WEBHOOK] pairing code updated")

	case webhook.KindConnected:
		if err := service.lifecycle.ApplyConnected(ctx, inst.ID, event.Connected.Phone); err != nil {
			return "", err
		}
		log.WithField("phone", event.Connected.Phone).Info("[WEBHOOK] instance connected")

	case webhook.KindDisconnected:
		if err := service.lifecycle.ApplyDisconnected(ctx, inst.ID); err != nil {
			return "", err
		}
		log.Info("[WEBHOOK] instance disconnected")

	case webhook.KindMessage:
		return service.processMessage(ctx, inst, event.Message, log)

	default:
		return "", pkgError.ValidationError("unknown webhook event kind")
	}

	return webhook.ResultProcessed, nil
}

func (service *webhookService) processMessage(ctx context.Context, inst *domainInstance.Instance, msg *webhook.MessageEvent, log *logrus.Entry) (webhook.Result, error) {
	phone := webhook.PhoneFromAddress(msg.From)
	if phone == "" {
		// Sin teléfono no hay a qué correlacionar; el gateway no puede
		// reaccionar a un 4xx, así que aceptamos y descartamos.
		log.WithField("from", msg.From).Warn("[WEBHOOK] message event without usable phone, ignoring")
		return webhook.ResultIgnored, nil
	}

	created, err := service.chats.ApplyInbound(ctx, domainChat.InboundMessage{
		InstanceID:  inst.ID,
		UserID:      inst.UserID,
		Phone:       phone,
		ExternalID:  msg.ID,
		Content:     msg.Content,
		MessageType: msg.MessageType,
		Timestamp:   time.Unix(msg.Timestamp, 0).UTC(),
		ReceivedAt:  service.clock.Now(),
	})
	if err != nil {
		return "", err
	}
	if !created {
		log.WithField("whatsapp_message_id", msg.ID).Debug("[WEBHOOK] duplicate message event, already stored")
	}
	return webhook.ResultProcessed, nil
}
