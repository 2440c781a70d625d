// Package main provides the entry point for the pdfocr worker and API server
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Caia-Tech/pdfocr/internal/api"
	"github.com/Caia-Tech/pdfocr/internal/events"
	"github.com/Caia-Tech/pdfocr/internal/temporal/activities"
	"github.com/Caia-Tech/pdfocr/internal/temporal/workflows"
	"github.com/Caia-Tech/pdfocr/pkg/logging"
	"github.com/Caia-Tech/pdfocr/pkg/pipeline"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	config := pipeline.ProductionPipelineConfig()
	if os.Getenv("PDFOCR_ENV") == "development" {
		config = pipeline.DevelopmentPipelineConfig()
	}

	if err := pipeline.ApplyEnvOverrides(config); err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logging.SetupLogger(config.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	log := logging.GetLogger("server")

	temporalClient, err := client.Dial(client.Options{
		HostPort: config.Temporal.HostPort,
	})
	if err != nil {
		log.Fatal().Err(err).Str("host", config.Temporal.HostPort).Msg("Failed to create Temporal client")
	}
	defer temporalClient.Close()

	bus := events.NewEventBus(256, 2)
	defer bus.Close()

	if _, err := bus.Subscribe(nil, func(ctx context.Context, event *events.RunEvent) error {
		eventLog := logging.GetPipelineLogger(event.RunID, string(event.Type))
		eventLog.Info().
			Str("path", event.Path).
			Int("page", event.Page).
			Int("pages", event.Pages).
			Str("error", event.Error).
			Msg("Run event")
		return nil
	}, 64); err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe to run events")
	}

	w := worker.New(temporalClient, config.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     2,
		MaxConcurrentWorkflowTaskExecutionSize: 10,
	})

	w.RegisterWorkflow(workflows.DocumentOCRWorkflow)

	ocr := activities.NewOCRActivities(config.Processing, bus)
	w.RegisterActivity(ocr.OCRDocumentActivity)

	go func() {
		if err := w.Run(worker.InterruptCh()); err != nil {
			log.Fatal().Err(err).Msg("Failed to start worker")
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:      "pdfocr API",
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "UTC",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: getEnv("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	h := api.NewHandlers(temporalClient, config.Temporal.TaskQueue, config.Temporal.ResultTimeout).
		WithEventStats(bus)
	api.SetupRoutes(app, h)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Info().
		Str("addr", addr).
		Str("task_queue", config.Temporal.TaskQueue).
		Msg("Starting pdfocr server")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
