package rest

import (
	"github.com/eduardoaugusto358-droid/BotNovo/core/config"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Health struct {
	DB *gorm.DB
}

func InitRestHealth(app fiber.Router, db *gorm.DB) Health {
	handler := Health{DB: db}
	app.Get("/api/health", handler.GetStatus)
	return handler
}

func (handler *Health) GetStatus(c *fiber.Ctx) error {
	dbStatus := "ok"
	if sqlDB, err := handler.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unavailable"
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: map[string]any{
			"version":  config.Global.App.Version,
			"database": dbStatus,
		},
	})
}
