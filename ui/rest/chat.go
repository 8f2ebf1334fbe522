package rest

import (
	domainChat "github.com/eduardoaugusto358-droid/BotNovo/domains/chat"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Chat struct {
	Service domainChat.IChatUsecase
}

func InitRestChat(app fiber.Router, service domainChat.IChatUsecase) Chat {
	handler := Chat{Service: service}

	group := app.Group("/api/messages")
	group.Get("/conversations", handler.ListConversations)
	group.Get("/conversations/:id", handler.GetConversation)
	group.Post("/send", handler.SendMessage)
	group.Post("/conversations/:id/mark-read", handler.MarkRead)
	group.Delete("/conversations/:id", handler.DeleteConversation)

	return handler
}

func (handler *Chat) ListConversations(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	conversations, err := handler.Service.ListConversations(c.UserContext(), userID, c.Query("instance_id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Conversations retrieved",
		Results: conversations,
	})
}

func (handler *Chat) GetConversation(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	conversation, err := handler.Service.GetConversation(c.UserContext(), userID, c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Conversation retrieved",
		Results: conversation,
	})
}

func (handler *Chat) SendMessage(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	var request domainChat.SendMessageRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	message, err := handler.Service.SendMessage(c.UserContext(), userID, request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Message sent",
		Results: message,
	})
}

func (handler *Chat) MarkRead(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	err := handler.Service.MarkRead(c.UserContext(), userID, c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Conversation marked as read",
	})
}

func (handler *Chat) DeleteConversation(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	err := handler.Service.DeleteConversation(c.UserContext(), userID, c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Conversation deleted",
	})
}
