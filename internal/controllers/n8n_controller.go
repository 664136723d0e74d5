package controllers

import (
	"errors"

	"github.com/elas-hq/elas-gateway/internal/engine"
	"github.com/elas-hq/elas-gateway/pkg/clients/n8n"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// N8NController triggers workflows on the local engine and reads its
// persisted workflow registry.
type N8NController struct {
	client    *n8n.Client
	workflows *engine.WorkflowReader
	token     string
}

type N8NControllerDependencies struct {
	Client    *n8n.Client
	Workflows *engine.WorkflowReader
	// Token is used only for presence and length diagnostics; its value is
	// never echoed back.
	Token string
}

func NewN8NController(deps N8NControllerDependencies) *N8NController {
	return &N8NController{
		client:    deps.Client,
		workflows: deps.Workflows,
		token:     deps.Token,
	}
}

type n8nTriggerRequest struct {
	WorkflowID    string `json:"workflowId"`
	WebhookURL    string `json:"webhookUrl"`
	PreferWebhook bool   `json:"preferWebhook"`
	Payload       any    `json:"payload"`
}

// Trigger runs a workflow. An explicit webhook URL wins; otherwise webhook
// discovery is attempted when preferred, falling back to a direct REST run.
func (c *N8NController) Trigger(ctx fiber.Ctx) error {
	var req n8nTriggerRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	// workflowId is required even when an explicit webhook URL is given, so
	// failures can always be attributed to a workflow.
	if req.WorkflowID == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "workflowId is required",
		})
	}

	if req.WebhookURL != "" {
		if !isHTTPURL(req.WebhookURL) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "webhookUrl must be an absolute http(s) URL",
			})
		}
		result, err := c.client.TriggerWebhook(ctx.RequestCtx(), req.WebhookURL, req.Payload)
		if err != nil {
			log.Error().Err(err).Msg("n8n webhook trigger failed")
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to trigger workflow via webhook",
			})
		}
		return c.triggered(ctx, result, "Workflow triggered via webhook")
	}

	if req.PreferWebhook {
		if webhookURL := c.client.WorkflowWebhookURL(ctx.RequestCtx(), req.WorkflowID); webhookURL != "" {
			result, err := c.client.TriggerWebhook(ctx.RequestCtx(), webhookURL, req.Payload)
			if err == nil {
				return c.triggered(ctx, result, "Workflow triggered via discovered webhook")
			}
			log.Warn().Err(err).Str("workflow_id", req.WorkflowID).
				Msg("Discovered webhook failed, falling back to direct execution")
		}
	}

	result, err := c.client.TriggerWorkflow(ctx.RequestCtx(), req.WorkflowID, req.Payload)
	if err != nil {
		log.Error().Err(err).Str("workflow_id", req.WorkflowID).Msg("n8n workflow trigger failed")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to trigger workflow",
		})
	}

	return c.triggered(ctx, result, "Workflow execution started")
}

func (c *N8NController) triggered(ctx fiber.Ctx, result *n8n.ExecutionResult, message string) error {
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":     true,
		"executionId": result.ExecutionID,
		"message":     message,
	})
}

// ListWorkflows reads the workflow registry from the engine's persisted
// database, so it works whether or not the engine is currently running.
func (c *N8NController) ListWorkflows(ctx fiber.Ctx) error {
	workflows, err := c.workflows.List(ctx.RequestCtx())
	if err != nil {
		if errors.Is(err, engine.ErrDatabaseNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Engine database not found; has the engine ever run?",
			})
		}

		log.Error().Err(err).Msg("Failed to read engine workflow database")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to read workflow database",
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"workflows": workflows,
		"count":     len(workflows),
	})
}

// Diag reports how the gateway authenticates against the engine. Only
// presence, length and shape of the token are exposed.
func (c *N8NController) Diag(ctx fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"tokenPresent": c.token != "",
		"tokenLength":  len(c.token),
		"authType":     c.client.AuthType(),
	})
}
