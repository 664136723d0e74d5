package server

import (
	"context"
	"time"

	"github.com/elas-hq/elas-gateway/internal/controllers"
	"github.com/elas-hq/elas-gateway/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/google/uuid"
)

type HTTPServerDependencies struct {
	MakeController       *controllers.MakeController
	QuickBooksController *controllers.QuickBooksController
	EngineController     *controllers.EngineController
	N8NController        *controllers.N8NController
	SyncController       *controllers.SyncController
}

func NewHTTPServer(ctx context.Context, deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "elas-gateway",
	})

	// Add basic middleware
	router.Use(cors.New())
	router.Use(logger.New())

	// Tag every request with an ID so gateway and backend logs correlate.
	router.Use(func(c fiber.Ctx) error {
		requestID := c.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("X-Request-Id", requestID)
		return c.Next()
	})

	// Health check endpoint (no authentication required)
	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "elas-gateway",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")

	quickbooks := api.Group("/quickbooks")
	quickbooks.Post("/connect", deps.QuickBooksController.Connect)
	quickbooks.Get("/callback", deps.QuickBooksController.Callback)
	quickbooks.Get("/status", deps.QuickBooksController.AuthStatus)
	quickbooks.Post("/disconnect", deps.QuickBooksController.Disconnect)
	quickbooks.Post("/query", deps.QuickBooksController.RunQuery)

	makecom := api.Group("/make")
	makecom.Post("/connect", deps.MakeController.Connect)
	makecom.Get("/connect", deps.MakeController.ConnectionStatus)
	makecom.Post("/disconnect", deps.MakeController.Disconnect)
	makecom.Get("/scenarios", deps.MakeController.ListScenarios)
	makecom.Post("/trigger", deps.MakeController.Trigger)

	n8n := api.Group("/n8n")
	n8n.Post("/trigger", deps.N8NController.Trigger)
	n8n.Get("/workflows", deps.N8NController.ListWorkflows)
	n8n.Get("/diag", deps.N8NController.Diag)

	engine := api.Group("/engine")
	engine.Post("/start", deps.EngineController.Start)
	engine.Get("/start", deps.EngineController.Status)
	engine.Post("/stop", deps.EngineController.Stop)
	engine.Post("/reset", deps.EngineController.Reset)

	sync := api.Group("/sync")
	sync.Post("/yardi-to-qb", deps.SyncController.SyncYardiToQB)
	sync.Post("/qb-to-yardi", deps.SyncController.SyncQBToYardi)
	sync.Get("/status/:syncId", deps.SyncController.Status)
	sync.Get("/timestamps", deps.SyncController.GetTimestamps)
	sync.Post("/timestamps", deps.SyncController.SetTimestamp)

	return router
}
