// Package makecom provides a client for the Make.com public API. Listing
// operations degrade to empty results on failure so a connected-but-empty
// account and an unreachable API look the same to the presentation layer;
// operations with side effects return structured errors.
package makecom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elas-hq/elas-gateway/internal/credentials"
	"github.com/elas-hq/elas-gateway/internal/normalize"

	"github.com/rs/zerolog/log"
)

// Client talks to the Make.com v2 API using the credential held in the
// injected store.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	creds      credentials.Store
}

// NewClient creates a new Make.com client with the given options
func NewClient(creds credentials.Store, options ...ClientOption) *Client {
	config := DefaultConfig()

	for _, option := range options {
		option(config)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		creds:      creds,
	}
}

// ValidateKey probes the users/me endpoint with the given key. Validation is
// best-effort: Make.com accounts differ in which endpoints a token can reach,
// so callers store the key even when this check fails.
func (c *Client) ValidateKey(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ValidateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/v2/users/me", nil)
	if err != nil {
		return fmt.Errorf("failed to build validation request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TimeoutError{Err: err}
	}
	defer resp.Body.Close()

	log.Debug().Int("status", resp.StatusCode).Msg("Make.com key validation response")

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return nil
}

// ListScenarios returns the scenarios visible to the stored credential. Any
// upstream failure yields an empty slice rather than an error; only a missing
// credential is reported, as ErrNotConnected.
//
// When the initial request is rejected with an auth-class status the client
// runs exactly one recovery pass: it looks up the account's teams, persists
// the first team's ID as the credential's auxiliary identifier, and retries
// the listing once with that team attached.
func (c *Client) ListScenarios(ctx context.Context) ([]Scenario, error) {
	cred, ok := c.creds.Get()
	if !ok {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.ListTimeout)
	defer cancel()

	teamID := ""
	if cred.Auxiliary != nil {
		teamID = cred.Auxiliary.ID
	}

	payload, upstreamErr := c.fetchScenarios(ctx, cred.Secret, teamID)

	if upstreamErr != nil && upstreamErr.IsAuthError() {
		log.Warn().
			Int("status", upstreamErr.StatusCode).
			Msg("Make.com scenario listing rejected, attempting team discovery")

		if team, ok := c.discoverTeam(ctx, cred.Secret); ok {
			c.creds.SetAuxiliary(credentials.Auxiliary{ID: team.ID, Name: team.Name})
			payload, upstreamErr = c.fetchScenarios(ctx, cred.Secret, team.ID)
		}
	}

	if upstreamErr != nil {
		log.Error().
			Int("status", upstreamErr.StatusCode).
			Msg("Make.com scenario listing failed")
		return []Scenario{}, nil
	}

	items := normalize.Collection(payload, "scenarios", "items", "data")
	scenarios := make([]Scenario, 0, len(items))

	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		id := normalize.FirstString(item, "id", "scenarioId", "scenario_id")
		name := normalize.FirstString(item, "name")
		if name == "" {
			name = fmt.Sprintf("Scenario %s", id)
		}
		status := normalize.FirstString(item, "status", "state")
		if status == "" {
			status = "unknown"
		}

		_, hasBlueprint := item["blueprint"]
		if flag, ok := item["hasBlueprint"].(bool); ok && flag {
			hasBlueprint = true
		}

		scenarios = append(scenarios, Scenario{
			ID:           id,
			Name:         name,
			Status:       status,
			Enabled:      normalize.Enabled(item),
			HasBlueprint: hasBlueprint,
		})
	}

	log.Debug().Int("count", len(scenarios)).Msg("Make.com scenarios listed")

	return scenarios, nil
}

// fetchScenarios performs one scenario listing request. Transport errors are
// folded into a synthetic status-0 upstream error since both degrade to an
// empty listing.
func (c *Client) fetchScenarios(ctx context.Context, secret, teamID string) (any, *UpstreamError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/v2/scenarios", nil)
	if err != nil {
		return nil, &UpstreamError{Body: err.Error()}
	}
	req.Header.Set("Authorization", "Token "+secret)
	req.Header.Set("Content-Type", "application/json")
	if teamID != "" {
		req.Header.Set("X-Team-Id", teamID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return decodeBody(resp.Body), nil
}

// DiscoverTeam looks up the first team visible to the stored credential and
// persists it as the credential's auxiliary identifier. The second return
// value reports whether a team was found.
func (c *Client) DiscoverTeam(ctx context.Context) (Team, bool) {
	cred, ok := c.creds.Get()
	if !ok {
		return Team{}, false
	}

	team, ok := c.discoverTeam(ctx, cred.Secret)
	if !ok {
		return Team{}, false
	}

	c.creds.SetAuxiliary(credentials.Auxiliary{ID: team.ID, Name: team.Name})

	return team, true
}

// discoverTeam looks up the first team visible to the secret.
func (c *Client) discoverTeam(ctx context.Context, secret string) (Team, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/v2/teams", nil)
	if err != nil {
		return Team{}, false
	}
	req.Header.Set("Authorization", "Token "+secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("Make.com team discovery failed")
		return Team{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Warn().Int("status", resp.StatusCode).Msg("Make.com team discovery rejected")
		return Team{}, false
	}

	teams := normalize.Collection(decodeBody(resp.Body), "teams", "items", "data")
	if len(teams) == 0 {
		return Team{}, false
	}

	first, ok := teams[0].(map[string]any)
	if !ok {
		return Team{}, false
	}

	id := normalize.FirstString(first, "id", "teamId", "team_id")
	if id == "" {
		return Team{}, false
	}

	team := Team{
		ID:   id,
		Name: normalize.FirstString(first, "name", "teamName"),
	}

	log.Info().Str("team_id", team.ID).Msg("Discovered Make.com team")

	return team, true
}

// RunScenario starts a scenario run through the authenticated API rather than
// a public webhook. Unlike listing, a failed run is a structured error.
func (c *Client) RunScenario(ctx context.Context, scenarioID string, payload any) (*WebhookResult, error) {
	cred, ok := c.creds.Get()
	if !ok {
		return nil, ErrNotConnected
	}

	if payload == nil {
		payload = map[string]any{}
	}

	body, err := json.Marshal(map[string]any{"data": payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode run payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.WebhookTimeout)
	defer cancel()

	runURL := fmt.Sprintf("%s/v2/scenarios/%s/run", c.config.BaseURL, scenarioID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, runURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build run request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+cred.Secret)
	req.Header.Set("Content-Type", "application/json")
	if cred.Auxiliary != nil {
		req.Header.Set("X-Team-Id", cred.Auxiliary.ID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TimeoutError{Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	result := &WebhookResult{
		StatusCode: resp.StatusCode,
		RawBody:    string(raw),
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		result.Response = parsed
	}

	return result, nil
}

// TriggerWebhook posts the payload to a scenario's webhook URL. A nil payload
// is sent as an empty JSON object.
func (c *Client) TriggerWebhook(ctx context.Context, webhookURL string, payload any) (*WebhookResult, error) {
	if payload == nil {
		payload = map[string]any{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.WebhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TimeoutError{Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	result := &WebhookResult{
		StatusCode: resp.StatusCode,
		RawBody:    string(raw),
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		result.Response = parsed
	}

	return result, nil
}

// decodeBody parses a JSON body, falling back to an empty object on malformed
// payloads so normalization still applies.
func decodeBody(r io.Reader) any {
	var payload any
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return map[string]any{}
	}
	return payload
}
