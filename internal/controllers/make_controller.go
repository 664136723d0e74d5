package controllers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/elas-hq/elas-gateway/internal/credentials"
	"github.com/elas-hq/elas-gateway/pkg/clients/makecom"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// MakeController handles Make.com connection management, scenario listing and
// scenario triggering.
type MakeController struct {
	credentials credentials.Store
	client      *makecom.Client
}

type MakeControllerDependencies struct {
	Credentials credentials.Store
	Client      *makecom.Client
}

func NewMakeController(deps MakeControllerDependencies) *MakeController {
	return &MakeController{
		credentials: deps.Credentials,
		client:      deps.Client,
	}
}

type makeConnectRequest struct {
	APIKey string `json:"apiKey"`
}

type makeTriggerRequest struct {
	WebhookURL string `json:"webhookUrl"`
	ScenarioID string `json:"scenarioId"`
	Payload    any    `json:"payload"`
}

// Connect stores the submitted API key as the active credential. The key is
// stored even when upstream validation cannot be confirmed, since Make.com
// accounts differ in which endpoints a token may reach.
func (c *MakeController) Connect(ctx fiber.Ctx) error {
	var req makeConnectRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "API key is required",
		})
	}

	c.credentials.Set(credentials.Credential{
		Secret:      key,
		DisplayName: "Make.com",
	})

	log.Info().Int("key_length", len(key)).Msg("Make.com API key stored")

	message := "Connected to Make.com"
	if err := c.client.ValidateKey(ctx.RequestCtx(), key); err != nil {
		log.Warn().Err(err).Msg("Make.com key validation inconclusive, key kept")
		message = "API key stored; validation could not be confirmed"
	}

	teamName := ""
	if team, ok := c.client.DiscoverTeam(ctx.RequestCtx()); ok {
		teamName = team.Name
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"connected": true,
		"teamName":  teamName,
		"message":   message,
	})
}

// ConnectionStatus reports whether a credential is stored. The secret itself
// never appears in the response.
func (c *MakeController) ConnectionStatus(ctx fiber.Ctx) error {
	cred, ok := c.credentials.Get()

	response := fiber.Map{"connected": ok}
	if ok && cred.Auxiliary != nil {
		response["teamName"] = cred.Auxiliary.Name
	}

	return ctx.Status(fiber.StatusOK).JSON(response)
}

// Disconnect removes the stored credential. Safe to call repeatedly.
func (c *MakeController) Disconnect(ctx fiber.Ctx) error {
	wasConnected := c.credentials.Clear()

	log.Info().Bool("was_connected", wasConnected).Msg("Make.com credential cleared")

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":            true,
		"disconnected":       true,
		"wasConnectedBefore": wasConnected,
	})
}

// ListScenarios returns the normalized scenario list. Upstream failures
// surface as an empty list, not an error.
func (c *MakeController) ListScenarios(ctx fiber.Ctx) error {
	scenarios, err := c.client.ListScenarios(ctx.RequestCtx())
	if err != nil {
		if errors.Is(err, makecom.ErrNotConnected) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Make.com is not connected",
			})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to list scenarios",
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"scenarios": scenarios,
		"count":     len(scenarios),
	})
}

// Trigger starts a scenario, either through its public webhook URL or through
// the authenticated run endpoint when only a scenario ID is given. Malformed
// URLs are rejected before any network call.
func (c *MakeController) Trigger(ctx fiber.Ctx) error {
	if _, ok := c.credentials.Get(); !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Make.com is not connected",
		})
	}

	var req makeTriggerRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.WebhookURL == "" && req.ScenarioID == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "webhookUrl or scenarioId is required",
		})
	}

	via := "webhook"
	var (
		result *makecom.WebhookResult
		err    error
	)

	if req.WebhookURL != "" {
		if !isHTTPURL(req.WebhookURL) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "webhookUrl must be an absolute http(s) URL",
			})
		}
		result, err = c.client.TriggerWebhook(ctx.RequestCtx(), req.WebhookURL, req.Payload)
	} else {
		via = "api"
		result, err = c.client.RunScenario(ctx.RequestCtx(), req.ScenarioID, req.Payload)
	}

	if err != nil {
		return c.triggerError(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"triggered": true,
		"via":       via,
		"status":    result.StatusCode,
		"response":  result.Response,
	})
}

// triggerError maps a trigger failure onto the transport: upstream rejections
// keep a gateway status, network faults and timeouts become 504.
func (c *MakeController) triggerError(ctx fiber.Ctx, err error) error {
	var upstream *makecom.UpstreamError
	if errors.As(err, &upstream) {
		log.Warn().Int("status", upstream.StatusCode).Msg("Make.com trigger rejected upstream")
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success":        false,
			"error":          "Upstream rejected the trigger",
			"upstreamStatus": upstream.StatusCode,
		})
	}

	var timeout *makecom.TimeoutError
	if errors.As(err, &timeout) {
		log.Warn().Err(err).Msg("Make.com trigger timed out")
		return ctx.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"success": false,
			"error":   "Trigger timed out or the webhook was unreachable",
		})
	}

	if errors.Is(err, makecom.ErrNotConnected) {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Make.com is not connected",
		})
	}

	log.Error().Err(err).Msg("Make.com trigger failed")
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "Failed to trigger scenario",
	})
}

// isHTTPURL reports whether s is an absolute http or https URL.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
