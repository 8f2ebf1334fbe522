package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	coreconfig "github.com/eduardoaugusto358-droid/BotNovo/core/config"
	coreDB "github.com/eduardoaugusto358-droid/BotNovo/core/database"
	"github.com/eduardoaugusto358-droid/BotNovo/infrastructure/baileys"
	"github.com/eduardoaugusto358-droid/BotNovo/pkg/clock"
	"github.com/eduardoaugusto358-droid/BotNovo/repository"
	"github.com/eduardoaugusto358-droid/BotNovo/ui/rest"
	"github.com/eduardoaugusto358-droid/BotNovo/ui/rest/middleware"
	"github.com/eduardoaugusto358-droid/BotNovo/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the BotNovo HTTP API",
	Run:   restServer,
}

func init() {
	restCmd.Flags().String("port", "", "Port to listen on (overrides APP_PORT)")
	rootCmd.AddCommand(restCmd)
}

func restServer(cmd *cobra.Command, _ []string) {
	cfg := coreconfig.Global
	if portFlag, _ := cmd.Flags().GetString("port"); portFlag != "" {
		cfg.App.Port = portFlag
	}

	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}

	instanceRepo := repository.NewInstanceGormRepository(db)
	chatRepo := repository.NewChatGormRepository(db)

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := instanceRepo.InitSchema(migrateCtx); err != nil {
		logrus.Fatalf("Failed to migrate instance schema: %v", err)
	}
	if err := chatRepo.InitSchema(migrateCtx); err != nil {
		logrus.Fatalf("Failed to migrate chat schema: %v", err)
	}

	sessionGateway := baileys.NewClient(cfg.Gateway.BaseURL)
	clk := clock.New()

	instanceUsecase := usecase.NewInstanceService(instanceRepo, chatRepo, sessionGateway, clk, cfg.App.BaseURL)
	webhookUsecase := usecase.NewWebhookService(instanceRepo, instanceUsecase, chatRepo, clk)
	chatUsecase := usecase.NewChatService(chatRepo, instanceRepo, sessionGateway, clk)

	fiberConfig := fiber.Config{
		Network:               "tcp",
		AppName:               "BotNovo",
		DisableStartupMessage: false,
		ServerHeader:          "Hidden",
	}
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.EnableTrustedProxyCheck = true
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.App.CorsAllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Account-ID, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		// The gateway posts every event here; never throttle ingestion.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/webhook/")
		},
	}))

	if cfg.App.Debug {
		app.Use(logger.New())
	}

	rest.InitRestWebhook(app, webhookUsecase)
	rest.InitRestMonitoring(app)

	apiGroup := app.Group(cfg.App.BasePath)
	rest.InitRestInstance(apiGroup, instanceUsecase)
	rest.InitRestChat(apiGroup, chatUsecase)
	rest.InitRestHealth(apiGroup, db)

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Termination signal received, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
