package controllers

import (
	"errors"

	"github.com/elas-hq/elas-gateway/internal/engine"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// EngineController manages the lifecycle of the local automation engine
// process.
type EngineController struct {
	supervisor *engine.Supervisor
}

type EngineControllerDependencies struct {
	Supervisor *engine.Supervisor
}

func NewEngineController(deps EngineControllerDependencies) *EngineController {
	return &EngineController{
		supervisor: deps.Supervisor,
	}
}

// Start launches the engine if it is not already running, then waits for it
// to become ready. Exceeding the readiness budget reports status "failed"
// rather than leaving the caller guessing.
func (c *EngineController) Start(ctx fiber.Ctx) error {
	result, err := c.supervisor.Start(ctx.RequestCtx())
	if err != nil {
		log.Error().Err(err).Msg("Engine launch failed")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "failed",
			"error":  "Failed to launch engine process",
		})
	}

	if result.AlreadyRunning {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "running",
		})
	}

	if err := c.supervisor.PollUntilReady(ctx.RequestCtx()); err != nil {
		if errors.Is(err, engine.ErrStartTimeout) {
			log.Error().Msg("Engine did not become ready within the readiness budget")
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status": "failed",
				"error":  "Engine did not become ready in time",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "failed",
			"error":  err.Error(),
		})
	}

	response := fiber.Map{"status": "started"}
	if result.PID > 0 {
		response["pid"] = result.PID
	}

	return ctx.Status(fiber.StatusOK).JSON(response)
}

// Status reports current engine liveness.
func (c *EngineController) Status(ctx fiber.Ctx) error {
	running := c.supervisor.IsRunning(ctx.RequestCtx())

	status := "stopped"
	if running {
		status = "running"
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"running": running,
		"status":  status,
	})
}

// Stop terminates the engine process. A process that was not running counts
// as a successful stop.
func (c *EngineController) Stop(ctx fiber.Ctx) error {
	if err := c.supervisor.Stop(ctx.RequestCtx()); err != nil {
		log.Error().Err(err).Msg("Engine stop failed")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to stop engine",
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Engine stopped",
	})
}

// Reset stops the engine, waits for file handles to be released, then deletes
// its data directory.
func (c *EngineController) Reset(ctx fiber.Ctx) error {
	result, err := c.supervisor.Reset(ctx.RequestCtx())
	if err != nil {
		log.Error().Err(err).Msg("Engine reset failed")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to reset engine state",
		})
	}

	message := "Engine state reset"
	if !result.DataDirRemoved {
		message = "Engine stopped; no data directory to remove"
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}
