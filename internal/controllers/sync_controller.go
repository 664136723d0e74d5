package controllers

import (
	"github.com/elas-hq/elas-gateway/internal/syncer"
	"github.com/elas-hq/elas-gateway/pkg/clients/syncbackend"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// SyncController exposes the composite sync operations and the advisory
// last-synced timestamps.
type SyncController struct {
	orchestrator *syncer.Orchestrator
	backend      syncbackend.ClientInterface
}

type SyncControllerDependencies struct {
	Orchestrator *syncer.Orchestrator
	Backend      syncbackend.ClientInterface
}

func NewSyncController(deps SyncControllerDependencies) *SyncController {
	return &SyncController{
		orchestrator: deps.Orchestrator,
		backend:      deps.Backend,
	}
}

type yardiToQBRequest struct {
	PropertyCode string `json:"propertyCode"`
}

type qbToYardiRequest struct {
	PropertyCode string `json:"propertyCode"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
}

type setTimestampRequest struct {
	UserID    string `json:"userId"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// SyncYardiToQB runs the bills and receipts syncs from Yardi into QuickBooks
// and returns the aggregated outcome. Constituent failures are reported in
// the outcome body, not as a transport error.
func (c *SyncController) SyncYardiToQB(ctx fiber.Ctx) error {
	var req yardiToQBRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	outcome := c.orchestrator.SyncYardiToQB(ctx.RequestCtx(), req.PropertyCode)

	log.Info().Str("outcome_id", outcome.ID).Str("status", string(outcome.Status)).
		Msg("Yardi to QuickBooks sync requested")

	return ctx.Status(fiber.StatusOK).JSON(outcome)
}

// SyncQBToYardi runs the reverse-direction export.
func (c *SyncController) SyncQBToYardi(ctx fiber.Ctx) error {
	var req qbToYardiRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	outcome := c.orchestrator.SyncQBToYardi(ctx.RequestCtx(), req.PropertyCode, req.StartDate, req.EndDate)

	return ctx.Status(fiber.StatusOK).JSON(outcome)
}

// Status looks up the backend's record of a single sync by ID.
func (c *SyncController) Status(ctx fiber.Ctx) error {
	syncID := ctx.Params("syncId")

	direction := syncbackend.Direction(ctx.Query("direction", string(syncbackend.DirectionYardiToQB)))

	resp, err := c.backend.SyncStatus(ctx.RequestCtx(), syncID, direction)
	if err != nil {
		log.Warn().Err(err).Str("sync_id", syncID).Msg("Sync status lookup failed")
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to look up sync status",
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(resp)
}

// GetTimestamps returns the caller's last-synced markers.
func (c *SyncController) GetTimestamps(ctx fiber.Ctx) error {
	userID := ctx.Query("userId", syncer.DefaultUser)

	return ctx.Status(fiber.StatusOK).JSON(c.orchestrator.Timestamps().Get(userID))
}

// SetTimestamp records a last-synced marker explicitly, for operators
// backfilling state after an out-of-band sync.
func (c *SyncController) SetTimestamp(ctx fiber.Ctx) error {
	var req setTimestampRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Source == "" || req.Timestamp == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "source and timestamp are required",
		})
	}

	userID := req.UserID
	if userID == "" {
		userID = syncer.DefaultUser
	}

	if err := c.orchestrator.Timestamps().Set(userID, syncer.Source(req.Source), req.Timestamp); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}
