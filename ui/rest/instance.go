package rest

import (
	"errors"

	domainInstance "github.com/eduardoaugusto358-droid/BotNovo/domains/instance"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Instance struct {
	Service domainInstance.IInstanceUsecase
}

func InitRestInstance(app fiber.Router, service domainInstance.IInstanceUsecase) Instance {
	handler := Instance{Service: service}

	group := app.Group("/api/instances")
	group.Post("/", handler.Create)
	group.Get("/", handler.List)
	group.Get("/:id", handler.GetByID)
	group.Put("/:id", handler.Update)
	group.Delete("/:id", handler.Delete)
	group.Get("/:id/qr-code", handler.PairingCode)
	group.Post("/:id/sync", handler.SyncStatus)

	return handler
}

func (handler *Instance) Create(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	var request domainInstance.CreateRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	inst, err := handler.Service.Create(c.UserContext(), userID, request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instance created",
		Results: inst,
	})
}

func (handler *Instance) List(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	instances, err := handler.Service.List(c.UserContext(), userID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instances retrieved",
		Results: instances,
	})
}

func (handler *Instance) GetByID(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	inst, err := handler.Service.GetByID(c.UserContext(), userID, c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instance retrieved",
		Results: inst,
	})
}

func (handler *Instance) Update(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	var request domainInstance.UpdateRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	inst, err := handler.Service.Update(c.UserContext(), userID, c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instance updated",
		Results: inst,
	})
}

func (handler *Instance) Delete(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	err := handler.Service.Delete(c.UserContext(), userID, c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instance deleted",
	})
}

func (handler *Instance) PairingCode(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	code, err := handler.Service.PairingCode(c.UserContext(), userID, c.Params("id"))
	if errors.Is(err, domainInstance.ErrAlreadyConnected) {
		return c.Status(fiber.StatusConflict).JSON(utils.ResponseData{
			Status:  409,
			Code:    "ALREADY_CONNECTED",
			Message: "Instance is already connected; no pairing code available",
		})
	}
	if errors.Is(err, domainInstance.ErrCodeNotAvailable) {
		return c.Status(fiber.StatusNotFound).JSON(utils.ResponseData{
			Status:  404,
			Code:    "QR_NOT_AVAILABLE",
			Message: "Pairing code not issued yet, try again shortly",
		})
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Pairing code retrieved",
		Results: code,
	})
}

func (handler *Instance) SyncStatus(c *fiber.Ctx) error {
	userID := requireAccountID(c)

	inst, err := handler.Service.SyncStatus(c.UserContext(), userID, c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instance status synced",
		Results: inst,
	})
}
