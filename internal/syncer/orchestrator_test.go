package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elas-hq/elas-gateway/pkg/clients/syncbackend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend returns canned responses per data type.
type fakeBackend struct {
	yardiResponses map[syncbackend.DataType]*syncbackend.SyncResponse
	yardiErrors    map[syncbackend.DataType]error
	qbResponses    map[syncbackend.DataType]*syncbackend.SyncResponse
}

func (f *fakeBackend) AuthStatus(context.Context) syncbackend.AuthStatusResponse {
	return syncbackend.AuthStatusResponse{}
}

func (f *fakeBackend) InitiateOAuth(context.Context, string, string) (*syncbackend.AuthResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBackend) ExchangeCode(context.Context, string, string, string, string) bool {
	return false
}

func (f *fakeBackend) Disconnect(context.Context) (*syncbackend.DisconnectResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBackend) SyncYardiToQB(_ context.Context, req syncbackend.SyncRequest) (*syncbackend.SyncResponse, error) {
	if err, ok := f.yardiErrors[req.DataType]; ok {
		return nil, err
	}
	return f.yardiResponses[req.DataType], nil
}

func (f *fakeBackend) SyncQBToYardi(_ context.Context, req syncbackend.QBToYardiRequest) (*syncbackend.SyncResponse, error) {
	return f.qbResponses[req.DataType], nil
}

func (f *fakeBackend) SyncStatus(context.Context, string, syncbackend.Direction) (*syncbackend.SyncResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBackend) Health(context.Context) (*syncbackend.HealthResponse, error) {
	return nil, errors.New("not implemented")
}

func intPtr(n int) *int { return &n }

func completedResponse(records int) *syncbackend.SyncResponse {
	return &syncbackend.SyncResponse{
		Success:          true,
		SyncID:           "sync-1",
		Status:           syncbackend.SyncStatusCompleted,
		RecordsProcessed: intPtr(records),
	}
}

func failedResponse() *syncbackend.SyncResponse {
	return &syncbackend.SyncResponse{
		SyncID: "sync-2",
		Status: syncbackend.SyncStatusFailed,
		Errors: []string{"upstream validation failed"},
	}
}

func TestSyncYardiToQB_AllCompleted(t *testing.T) {
	backend := &fakeBackend{
		yardiResponses: map[syncbackend.DataType]*syncbackend.SyncResponse{
			syncbackend.DataTypeBills:    completedResponse(3),
			syncbackend.DataTypeReceipts: completedResponse(7),
		},
	}

	o := NewOrchestrator(OrchestratorDependencies{Backend: backend})

	outcome := o.SyncYardiToQB(context.Background(), "chabot")
	assert.Equal(t, StatusCompleted, outcome.Status)
	assert.Equal(t, 10, outcome.TotalRecords)
	assert.Empty(t, outcome.FailedNames)
	assert.NotEmpty(t, outcome.ID)
}

func TestSyncYardiToQB_PartialNamesFailedConstituent(t *testing.T) {
	backend := &fakeBackend{
		yardiResponses: map[syncbackend.DataType]*syncbackend.SyncResponse{
			syncbackend.DataTypeBills:    failedResponse(),
			syncbackend.DataTypeReceipts: completedResponse(5),
		},
	}

	o := NewOrchestrator(OrchestratorDependencies{Backend: backend})

	outcome := o.SyncYardiToQB(context.Background(), "chabot")
	assert.Equal(t, StatusPartial, outcome.Status)
	assert.Equal(t, []string{"Bills"}, outcome.FailedNames)
	assert.Equal(t, 5, outcome.TotalRecords)
	assert.Contains(t, outcome.Message, "Bills sync failed")
	assert.Contains(t, outcome.Message, "Receipts (5 records)")
}

func TestSyncYardiToQB_AllFailed(t *testing.T) {
	backend := &fakeBackend{
		yardiResponses: map[syncbackend.DataType]*syncbackend.SyncResponse{
			syncbackend.DataTypeBills:    failedResponse(),
			syncbackend.DataTypeReceipts: failedResponse(),
		},
	}

	o := NewOrchestrator(OrchestratorDependencies{Backend: backend})

	outcome := o.SyncYardiToQB(context.Background(), "chabot")
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.ElementsMatch(t, []string{"Bills", "Receipts"}, outcome.FailedNames)
	assert.Zero(t, outcome.TotalRecords)
}

func TestSyncYardiToQB_ConstituentErrorIsConstituentFailure(t *testing.T) {
	backend := &fakeBackend{
		yardiResponses: map[syncbackend.DataType]*syncbackend.SyncResponse{
			syncbackend.DataTypeReceipts: completedResponse(2),
		},
		yardiErrors: map[syncbackend.DataType]error{
			syncbackend.DataTypeBills: errors.New("backend unreachable"),
		},
	}

	o := NewOrchestrator(OrchestratorDependencies{Backend: backend})

	outcome := o.SyncYardiToQB(context.Background(), "chabot")
	assert.Equal(t, StatusPartial, outcome.Status)
	assert.Equal(t, []string{"Bills"}, outcome.FailedNames)
	assert.Equal(t, 2, outcome.TotalRecords)
}

func TestSyncYardiToQB_ZeroRecordsIsPendingNotCompleted(t *testing.T) {
	zero := &syncbackend.SyncResponse{
		SyncID: "sync-3",
		Status: syncbackend.SyncStatusInProgress,
	}

	backend := &fakeBackend{
		yardiResponses: map[syncbackend.DataType]*syncbackend.SyncResponse{
			syncbackend.DataTypeBills:    zero,
			syncbackend.DataTypeReceipts: zero,
		},
	}

	o := NewOrchestrator(OrchestratorDependencies{Backend: backend})

	outcome := o.SyncYardiToQB(context.Background(), "chabot")
	assert.Equal(t, StatusPending, outcome.Status)
	assert.Zero(t, outcome.TotalRecords)
}

func TestSyncYardiToQB_PendingOutcomeStillAdvancesTimestamp(t *testing.T) {
	noRecords := &syncbackend.SyncResponse{
		SyncID: "sync-4",
		Status: syncbackend.SyncStatusCompleted,
	}

	backend := &fakeBackend{
		yardiResponses: map[syncbackend.DataType]*syncbackend.SyncResponse{
			syncbackend.DataTypeBills:    noRecords,
			syncbackend.DataTypeReceipts: noRecords,
		},
	}

	now := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	o := NewOrchestrator(OrchestratorDependencies{
		Backend: backend,
		Now:     func() time.Time { return now },
	})

	outcome := o.SyncYardiToQB(context.Background(), "chabot")
	assert.Equal(t, StatusPending, outcome.Status)

	stamps := o.Timestamps().Get(DefaultUser)
	require.NotNil(t, stamps.YardiSync)
	assert.Equal(t, "2025-06-02T09:30:00Z", *stamps.YardiSync)
}

func TestSyncYardiToQB_SuccessRecordsTimestamp(t *testing.T) {
	backend := &fakeBackend{
		yardiResponses: map[syncbackend.DataType]*syncbackend.SyncResponse{
			syncbackend.DataTypeBills:    completedResponse(1),
			syncbackend.DataTypeReceipts: completedResponse(1),
		},
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	o := NewOrchestrator(OrchestratorDependencies{
		Backend: backend,
		Now:     func() time.Time { return now },
	})

	o.SyncYardiToQB(context.Background(), "chabot")

	stamps := o.Timestamps().Get(DefaultUser)
	require.NotNil(t, stamps.YardiSync)
	assert.Equal(t, "2025-06-01T12:00:00Z", *stamps.YardiSync)
	assert.Nil(t, stamps.QuickBooksSync)
}

func TestSyncYardiToQB_FailureDoesNotAdvanceTimestamp(t *testing.T) {
	backend := &fakeBackend{
		yardiResponses: map[syncbackend.DataType]*syncbackend.SyncResponse{
			syncbackend.DataTypeBills:    failedResponse(),
			syncbackend.DataTypeReceipts: failedResponse(),
		},
	}

	o := NewOrchestrator(OrchestratorDependencies{Backend: backend})
	o.SyncYardiToQB(context.Background(), "chabot")

	stamps := o.Timestamps().Get(DefaultUser)
	assert.Nil(t, stamps.YardiSync)
}

func TestSyncQBToYardi_RecordsQuickBooksTimestamp(t *testing.T) {
	backend := &fakeBackend{
		qbResponses: map[syncbackend.DataType]*syncbackend.SyncResponse{
			syncbackend.DataTypeBills:    completedResponse(4),
			syncbackend.DataTypeReceipts: completedResponse(0),
		},
	}

	o := NewOrchestrator(OrchestratorDependencies{Backend: backend})

	outcome := o.SyncQBToYardi(context.Background(), "DEFAULT", "2025-01-01", "2025-01-31")
	assert.Equal(t, StatusCompleted, outcome.Status)
	assert.Equal(t, 4, outcome.TotalRecords)

	stamps := o.Timestamps().Get(DefaultUser)
	assert.NotNil(t, stamps.QuickBooksSync)
	assert.Nil(t, stamps.YardiSync)
}

func TestTimestampStore(t *testing.T) {
	store := NewTimestampStore()

	assert.Error(t, store.Set("u1", "salesforce", "2025-01-01T00:00:00Z"))

	require.NoError(t, store.Set("u1", SourceYardi, "2025-01-01T00:00:00Z"))
	require.NoError(t, store.Set("u1", "QuickBooks", "2025-01-02T00:00:00Z"))

	stamps := store.Get("u1")
	require.NotNil(t, stamps.YardiSync)
	assert.Equal(t, "2025-01-01T00:00:00Z", *stamps.YardiSync)
	require.NotNil(t, stamps.QuickBooksSync)
	assert.Equal(t, "2025-01-02T00:00:00Z", *stamps.QuickBooksSync)

	unknown := store.Get("nobody")
	assert.Nil(t, unknown.YardiSync)
	assert.Nil(t, unknown.QuickBooksSync)
}
