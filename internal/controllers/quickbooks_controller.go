package controllers

import (
	"errors"

	"github.com/elas-hq/elas-gateway/pkg/clients/quickbooks"
	"github.com/elas-hq/elas-gateway/pkg/clients/syncbackend"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// QuickBooksController proxies QuickBooks OAuth lifecycle calls to the sync
// backend and serves direct data queries.
type QuickBooksController struct {
	backend        syncbackend.ClientInterface
	query          *quickbooks.Client
	redirectOrigin string
}

type QuickBooksControllerDependencies struct {
	Backend syncbackend.ClientInterface
	Query   *quickbooks.Client
	// RedirectOrigin is the externally reachable origin the OAuth consent
	// screen redirects back to.
	RedirectOrigin string
}

func NewQuickBooksController(deps QuickBooksControllerDependencies) *QuickBooksController {
	return &QuickBooksController{
		backend:        deps.Backend,
		query:          deps.Query,
		redirectOrigin: deps.RedirectOrigin,
	}
}

type qbConnectRequest struct {
	Environment string `json:"environment"`
}

type qbQueryRequest struct {
	Query string `json:"query"`
}

// Connect asks the backend for a QuickBooks consent URL.
func (c *QuickBooksController) Connect(ctx fiber.Ctx) error {
	var req qbConnectRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	environment := req.Environment
	if environment == "" {
		environment = "sandbox"
	}

	redirectURI := c.redirectOrigin + "/api/quickbooks/callback"

	resp, err := c.backend.InitiateOAuth(ctx.RequestCtx(), environment, redirectURI)
	if err != nil {
		log.Error().Err(err).Str("environment", environment).Msg("Failed to initiate QuickBooks OAuth")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to initiate QuickBooks connection",
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"auth_url": resp.AuthURL,
		"state":    resp.State,
	})
}

// Callback forwards the OAuth redirect parameters to the backend for the code
// exchange. It reports a boolean outcome and never surfaces a 500: a failed
// exchange is an expected terminal state of the consent flow.
func (c *QuickBooksController) Callback(ctx fiber.Ctx) error {
	code := ctx.Query("code")
	state := ctx.Query("state")
	realmID := ctx.Query("realmId")

	if code == "" {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Missing authorization code",
		})
	}

	redirectURI := c.redirectOrigin + "/api/quickbooks/callback"
	ok := c.backend.ExchangeCode(ctx.RequestCtx(), code, state, realmID, redirectURI)

	message := "QuickBooks connected"
	if !ok {
		message = "Authorization could not be completed"
	}

	log.Info().Bool("success", ok).Str("realm_id", realmID).Msg("QuickBooks OAuth callback handled")

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": ok,
		"message": message,
	})
}

// AuthStatus reports the backend's QuickBooks session state, defaulting to
// unauthenticated when the backend is unreachable.
func (c *QuickBooksController) AuthStatus(ctx fiber.Ctx) error {
	status := c.backend.AuthStatus(ctx.RequestCtx())
	return ctx.Status(fiber.StatusOK).JSON(status)
}

// Disconnect revokes the backend's QuickBooks session. A backend refusal, for
// example when tokens are still held upstream, keeps its status and message.
func (c *QuickBooksController) Disconnect(ctx fiber.Ctx) error {
	resp, err := c.backend.Disconnect(ctx.RequestCtx())
	if err != nil {
		var backendErr *syncbackend.Error
		if errors.As(err, &backendErr) {
			log.Warn().Int("status", backendErr.StatusCode).Msg("QuickBooks disconnect refused by backend")
			return ctx.Status(backendErr.StatusCode).JSON(fiber.Map{
				"success": false,
				"error":   backendErr.Message,
			})
		}

		log.Error().Err(err).Msg("QuickBooks disconnect failed")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to disconnect QuickBooks",
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": resp.Success,
		"message": resp.Message,
	})
}

// RunQuery executes a QuickBooks SQL-like query with the configured direct
// access token.
func (c *QuickBooksController) RunQuery(ctx fiber.Ctx) error {
	var req qbQueryRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":    false,
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":    false,
			"error": "query is required",
		})
	}

	data, err := c.query.Query(ctx.RequestCtx(), req.Query)
	if err != nil {
		var queryErr *quickbooks.QueryError
		if errors.As(err, &queryErr) {
			log.Warn().Int("status", queryErr.StatusCode).Msg("QuickBooks query rejected")
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"ok":             false,
				"error":          "QuickBooks rejected the query",
				"upstreamStatus": queryErr.StatusCode,
				"body":           queryErr.Body,
			})
		}

		log.Error().Err(err).Msg("QuickBooks query failed")
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"ok":    false,
			"error": err.Error(),
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":   true,
		"data": data,
	})
}
