package makecom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elas-hq/elas-gateway/internal/credentials"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConnectedStore(secret string) credentials.Store {
	store := credentials.NewMemoryStore()
	store.Set(credentials.Credential{Secret: secret})
	return store
}

func TestListScenarios_NotConnected(t *testing.T) {
	client := NewClient(credentials.NewMemoryStore())

	_, err := client.ListScenarios(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestListScenarios_NormalizesShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bare array", body: `[{"id": 1, "name": "Sync bills", "enabled": true}]`},
		{name: "scenarios key", body: `{"scenarios": [{"id": 1, "name": "Sync bills", "enabled": true}]}`},
		{name: "items key", body: `{"items": [{"id": 1, "name": "Sync bills", "active": true}]}`},
		{name: "data key", body: `{"data": [{"id": 1, "name": "Sync bills", "isActive": true}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Token abc123", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(newConnectedStore("abc123"), WithBaseURL(server.URL))

			scenarios, err := client.ListScenarios(context.Background())
			require.NoError(t, err)
			require.Len(t, scenarios, 1)
			assert.Equal(t, "1", scenarios[0].ID)
			assert.Equal(t, "Sync bills", scenarios[0].Name)
			assert.True(t, scenarios[0].Enabled)
			assert.Equal(t, "unknown", scenarios[0].Status)
		})
	}
}

func TestListScenarios_SynthesizesMissingName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"scenarios": [{"id": 7}]}`))
	}))
	defer server.Close()

	client := NewClient(newConnectedStore("abc123"), WithBaseURL(server.URL))

	scenarios, err := client.ListScenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "Scenario 7", scenarios[0].Name)
	assert.False(t, scenarios[0].Enabled)
}

func TestListScenarios_TeamDiscoveryRetriesExactlyOnce(t *testing.T) {
	var scenarioCalls, teamCalls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/scenarios":
			scenarioCalls++
			if r.Header.Get("X-Team-Id") == "42" {
				w.Write([]byte(`{"scenarios": [{"id": "s1", "name": "Billing"}]}`))
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		case "/v2/teams":
			teamCalls++
			w.Write([]byte(`{"teams": [{"id": 42, "name": "Default Team"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	store := newConnectedStore("abc123")
	client := NewClient(store, WithBaseURL(server.URL))

	scenarios, err := client.ListScenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, 2, scenarioCalls, "original call plus exactly one retry")
	assert.Equal(t, 1, teamCalls)

	cred, ok := store.Get()
	require.True(t, ok)
	require.NotNil(t, cred.Auxiliary, "discovered team must be persisted")
	assert.Equal(t, "42", cred.Auxiliary.ID)
	assert.Equal(t, "Default Team", cred.Auxiliary.Name)
}

func TestListScenarios_NoSecondRetryWhenRetryFails(t *testing.T) {
	var scenarioCalls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/scenarios":
			scenarioCalls++
			w.WriteHeader(http.StatusUnauthorized)
		case "/v2/teams":
			w.Write([]byte(`{"teams": [{"id": "42"}]}`))
		}
	}))
	defer server.Close()

	client := NewClient(newConnectedStore("abc123"), WithBaseURL(server.URL))

	scenarios, err := client.ListScenarios(context.Background())
	require.NoError(t, err, "list failures degrade to an empty result")
	assert.Empty(t, scenarios)
	assert.Equal(t, 2, scenarioCalls, "a failed retry must not trigger another attempt")
}

func TestListScenarios_NoTeamFoundSurfacesEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/scenarios":
			w.WriteHeader(http.StatusForbidden)
		case "/v2/teams":
			w.Write([]byte(`{"teams": []}`))
		}
	}))
	defer server.Close()

	client := NewClient(newConnectedStore("abc123"), WithBaseURL(server.URL))

	scenarios, err := client.ListScenarios(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scenarios)
}

func TestListScenarios_UsesSavedTeamID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "7", r.Header.Get("X-Team-Id"))
		w.Write([]byte(`{"scenarios": []}`))
	}))
	defer server.Close()

	store := credentials.NewMemoryStore()
	store.Set(credentials.Credential{Secret: "abc123", Auxiliary: &credentials.Auxiliary{ID: "7"}})
	client := NewClient(store, WithBaseURL(server.URL))

	_, err := client.ListScenarios(context.Background())
	require.NoError(t, err)
}

func TestTriggerWebhook_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"accepted": true}`))
	}))
	defer server.Close()

	client := NewClient(credentials.NewMemoryStore())

	result, err := client.TriggerWebhook(context.Background(), server.URL, map[string]any{"ref": "inv-1"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, map[string]any{"accepted": true}, result.Response)
}

func TestTriggerWebhook_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("scenario disabled"))
	}))
	defer server.Close()

	client := NewClient(credentials.NewMemoryStore())

	_, err := client.TriggerWebhook(context.Background(), server.URL, nil)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusBadGateway, upstreamErr.StatusCode)
	assert.Equal(t, "scenario disabled", upstreamErr.Body)
}

func TestTriggerWebhook_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(credentials.NewMemoryStore())

	_, err := client.TriggerWebhook(context.Background(), server.URL, nil)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}
