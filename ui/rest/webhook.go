package rest

import (
	"errors"

	domainWebhook "github.com/eduardoaugusto358-droid/BotNovo/domains/webhook"
	pkgError "github.com/eduardoaugusto358-droid/BotNovo/pkg/error"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Webhook struct {
	Service domainWebhook.IWebhookUsecase
}

func InitRestWebhook(app fiber.Router, service domainWebhook.IWebhookUsecase) Webhook {
	handler := Webhook{Service: service}
	app.Post("/webhook/whatsapp/:instanceId", handler.Receive)
	return handler
}

// Receive is the single ingestion entry point for gateway push events. The
// sender is a fire-and-forget client, so responses stay minimal: processed,
// ignored, 404 for an unknown instance, 500 otherwise.
func (handler *Webhook) Receive(c *fiber.Ctx) error {
	instanceID := c.Params("instanceId")

	event, err := domainWebhook.Parse(c.Body())
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", metrics.OutcomeRejected).Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": err.Error(),
		})
	}

	result, err := handler.Service.Process(c.UserContext(), instanceID, event)
	if err != nil {
		var notFound pkgError.NotFoundError
		if errors.As(err, &notFound) {
			metrics.WebhookEvents.WithLabelValues(string(event.Kind), metrics.OutcomeRejected).Inc()
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"detail": "Instance not found",
			})
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"instance_id": instanceID,
			"event":       string(event.Kind),
		}).Error("[WEBHOOK] processing failed")
		metrics.WebhookEvents.WithLabelValues(string(event.Kind), metrics.OutcomeFailed).Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "Failed to process webhook",
		})
	}

	metrics.WebhookEvents.WithLabelValues(string(event.Kind), string(result)).Inc()
	return c.JSON(fiber.Map{"status": string(result)})
}
