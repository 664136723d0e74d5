// Package syncer composes individual backend sync calls into one user-facing
// outcome: bills and receipts sync together, partial failures name the
// constituent that failed, and full successes advance the last-synced marker.
package syncer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/elas-hq/elas-gateway/internal/normalize"
	"github.com/elas-hq/elas-gateway/pkg/clients/syncbackend"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// AggregateStatus classifies the combined outcome of a composite sync.
type AggregateStatus string

const (
	// StatusCompleted: no constituent failed and at least one moved records.
	StatusCompleted AggregateStatus = "completed"
	// StatusPartial: some but not all constituents failed.
	StatusPartial AggregateStatus = "partial"
	// StatusFailed: every constituent failed.
	StatusFailed AggregateStatus = "failed"
	// StatusPending: nothing failed but nothing reported records either. The
	// backend does not distinguish "zero records to sync" from "still in
	// progress", and that ambiguity is preserved here rather than guessed at.
	StatusPending AggregateStatus = "pending"
)

// ConstituentResult is the classified outcome of one data-type sync inside a
// composite operation.
type ConstituentResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Records int    `json:"records"`
	Failed  bool   `json:"failed"`
	Message string `json:"message,omitempty"`
}

// Outcome is the aggregate of a composite sync.
type Outcome struct {
	ID           string                `json:"id"`
	Direction    syncbackend.Direction `json:"direction"`
	Status       AggregateStatus       `json:"status"`
	TotalRecords int                   `json:"totalRecords"`
	Message      string                `json:"message"`
	Timestamp    string                `json:"timestamp"`
	Constituents []ConstituentResult   `json:"constituents"`
	FailedNames  []string              `json:"failed,omitempty"`
}

// Orchestrator runs composite syncs against the backend.
type Orchestrator struct {
	backend    syncbackend.ClientInterface
	timestamps *TimestampStore
	now        func() time.Time
}

// OrchestratorDependencies lists the orchestrator's collaborators.
type OrchestratorDependencies struct {
	Backend    syncbackend.ClientInterface
	Timestamps *TimestampStore
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(deps OrchestratorDependencies) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Timestamps == nil {
		deps.Timestamps = NewTimestampStore()
	}

	return &Orchestrator{
		backend:    deps.Backend,
		timestamps: deps.Timestamps,
		now:        deps.Now,
	}
}

// SyncYardiToQB syncs bills and receipts from Yardi into QuickBooks as one
// logical operation. The two constituents run concurrently; classification
// waits for both to settle.
func (o *Orchestrator) SyncYardiToQB(ctx context.Context, propertyCode string) *Outcome {
	constituents := []struct {
		name     string
		dataType syncbackend.DataType
	}{
		{name: "Bills", dataType: syncbackend.DataTypeBills},
		{name: "Receipts", dataType: syncbackend.DataTypeReceipts},
	}

	results := make([]ConstituentResult, len(constituents))

	var wg sync.WaitGroup
	for i, c := range constituents {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := o.backend.SyncYardiToQB(ctx, syncbackend.SyncRequest{
				DataType:     c.dataType,
				PropertyCode: propertyCode,
				SourceSystem: "yardi",
				TargetSystem: "quickbooks",
			})
			results[i] = classify(c.name, resp, err)
		}()
	}
	wg.Wait()

	return o.aggregate(syncbackend.DirectionYardiToQB, results)
}

// SyncQBToYardi exports bills and receipts from QuickBooks for Yardi.
func (o *Orchestrator) SyncQBToYardi(ctx context.Context, propertyCode, startDate, endDate string) *Outcome {
	constituents := []struct {
		name     string
		dataType syncbackend.DataType
	}{
		{name: "Bills", dataType: syncbackend.DataTypeBills},
		{name: "Receipts", dataType: syncbackend.DataTypeReceipts},
	}

	results := make([]ConstituentResult, len(constituents))

	var wg sync.WaitGroup
	for i, c := range constituents {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := o.backend.SyncQBToYardi(ctx, syncbackend.QBToYardiRequest{
				DataType:     c.dataType,
				StartDate:    startDate,
				EndDate:      endDate,
				PropertyCode: propertyCode,
				OutputDir:    "data/output",
			})
			results[i] = classify(c.name, resp, err)
		}()
	}
	wg.Wait()

	return o.aggregate(syncbackend.DirectionQBToYardi, results)
}

// classify turns one backend response (or failure) into a constituent result.
// A constituent that errored or panicked upstream is a failed constituent,
// never a failed composite.
func classify(name string, resp *syncbackend.SyncResponse, err error) ConstituentResult {
	if err != nil {
		return ConstituentResult{
			Name:    name,
			Status:  "error",
			Failed:  true,
			Message: err.Error(),
		}
	}

	status := string(resp.Status)

	result := ConstituentResult{
		Name:    name,
		Status:  status,
		Failed:  normalize.IsFailureStatus(status),
		Message: resp.Message,
	}

	if !result.Failed {
		result.Records = recordCount(resp)
	}

	return result
}

// recordCount applies the synonym policy to a typed backend response.
func recordCount(resp *syncbackend.SyncResponse) int {
	if resp.RecordsProcessed != nil {
		return *resp.RecordsProcessed
	}
	if resp.Success {
		return 1
	}
	return 0
}

func (o *Orchestrator) aggregate(direction syncbackend.Direction, results []ConstituentResult) *Outcome {
	outcome := &Outcome{
		ID:           xid.New().String(),
		Direction:    direction,
		Timestamp:    o.now().UTC().Format(time.RFC3339),
		Constituents: results,
	}

	var (
		completed []string
		failed    []string
		total     int
	)

	for _, r := range results {
		if r.Failed {
			failed = append(failed, r.Name)
			continue
		}
		total += r.Records
		if r.Records > 0 {
			completed = append(completed, fmt.Sprintf("%s (%d records)", r.Name, r.Records))
		}
	}

	outcome.TotalRecords = total
	outcome.FailedNames = failed

	switch {
	case len(failed) == len(results):
		outcome.Status = StatusFailed
		outcome.Message = "All syncs failed"
	case len(failed) > 0:
		outcome.Status = StatusPartial
		outcome.Message = fmt.Sprintf("%s sync failed, but %s completed successfully",
			strings.Join(failed, " and "), strings.Join(completed, " and "))
	case len(completed) > 0:
		outcome.Status = StatusCompleted
		outcome.Message = fmt.Sprintf("Synced %s. Total: %d records", strings.Join(completed, " and "), total)
		o.recordSuccess(direction, outcome.Timestamp)
	default:
		// Nothing failed, so the sync is treated as accepted and the
		// last-synced marker still advances even though no records were
		// reported yet.
		outcome.Status = StatusPending
		outcome.Message = "Sync accepted but no records reported yet"
		o.recordSuccess(direction, outcome.Timestamp)
	}

	log.Info().
		Str("direction", string(direction)).
		Str("status", string(outcome.Status)).
		Int("total_records", total).
		Strs("failed", failed).
		Msg("Composite sync finished")

	return outcome
}

// recordSuccess advances the advisory last-synced marker. It is informational
// only and plays no part in conflict detection or incremental cursors.
func (o *Orchestrator) recordSuccess(direction syncbackend.Direction, timestamp string) {
	source := SourceYardi
	if direction == syncbackend.DirectionQBToYardi {
		source = SourceQuickBooks
	}

	if err := o.timestamps.Set(DefaultUser, source, timestamp); err != nil {
		log.Warn().Err(err).Msg("Failed to record sync timestamp")
	}
}

// Timestamps exposes the orchestrator's timestamp store.
func (o *Orchestrator) Timestamps() *TimestampStore {
	return o.timestamps
}
