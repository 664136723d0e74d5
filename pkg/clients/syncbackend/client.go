// Package syncbackend provides a client for the backend API that performs the
// actual Yardi/QuickBooks record synchronization and owns the QuickBooks
// OAuth session.
package syncbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

// ClientInterface defines the operations the gateway needs from the backend.
type ClientInterface interface {
	AuthStatus(ctx context.Context) AuthStatusResponse
	InitiateOAuth(ctx context.Context, environment, redirectURI string) (*AuthResponse, error)
	ExchangeCode(ctx context.Context, code, state, realmID, redirectURI string) bool
	Disconnect(ctx context.Context) (*DisconnectResponse, error)
	SyncYardiToQB(ctx context.Context, req SyncRequest) (*SyncResponse, error)
	SyncQBToYardi(ctx context.Context, req QBToYardiRequest) (*SyncResponse, error)
	SyncStatus(ctx context.Context, syncID string, direction Direction) (*SyncResponse, error)
	Health(ctx context.Context) (*HealthResponse, error)
}

// Client provides a high-level interface to the backend sync API. Transient
// failures (5xx, connection resets) are retried a bounded number of times.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new sync backend client with the given options
func NewClient(options ...ClientOption) *Client {
	config := DefaultConfig()

	for _, option := range options {
		option(config)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = config.RetryMax
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	if config.HTTPClient != nil {
		retryClient.HTTPClient = config.HTTPClient
	}
	retryClient.HTTPClient.Timeout = config.Timeout

	return &Client{
		config:     config,
		httpClient: retryClient.StandardClient(),
	}
}

// AuthStatus reports the backend's QuickBooks session state. Any failure
// degrades to a default unauthenticated status rather than an error, so a
// dead backend reads as "not connected".
func (c *Client) AuthStatus(ctx context.Context) AuthStatusResponse {
	var status AuthStatusResponse

	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/status", nil)
	if err == nil {
		err = c.handleResponse(resp, &status)
	}

	if err != nil {
		log.Warn().Err(err).Msg("Failed to read QuickBooks auth status, defaulting to unauthenticated")
		return AuthStatusResponse{
			Authenticated: false,
			Environment:   "sandbox",
			Message:       "Not authenticated",
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		}
	}

	return status
}

// InitiateOAuth asks the backend for a QuickBooks authorization URL.
func (c *Client) InitiateOAuth(ctx context.Context, environment, redirectURI string) (*AuthResponse, error) {
	body := map[string]string{
		"environment":  environment,
		"redirect_uri": redirectURI,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/initiate", body)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate OAuth: %w", err)
	}

	var result AuthResponse
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to process OAuth initiation response: %w", err)
	}

	return &result, nil
}

// ExchangeCode completes the OAuth flow with the code and realm returned from
// the authorization redirect. Failures are reported as false, never as an
// error, matching the callback page's fire-and-report contract.
func (c *Client) ExchangeCode(ctx context.Context, code, state, realmID, redirectURI string) bool {
	params := url.Values{}
	params.Set("code", code)
	params.Set("state", state)
	params.Set("realmId", realmID)
	// The backend must use the same redirect URI for token exchange that the
	// frontend used for authorization, or the exchange is rejected.
	params.Set("redirect_uri", redirectURI)

	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/callback?"+params.Encode(), nil)
	if err != nil {
		log.Error().Err(err).Msg("OAuth code exchange failed")
		return false
	}

	var result TokenResponse
	if err := c.handleResponse(resp, &result); err != nil {
		log.Error().Err(err).Msg("OAuth code exchange returned an error")
		return false
	}

	return result.Success
}

// Disconnect revokes the backend's QuickBooks session.
func (c *Client) Disconnect(ctx context.Context) (*DisconnectResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/disconnect", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to disconnect: %w", err)
	}

	var result DisconnectResponse
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// SyncYardiToQB runs one Yardi-to-QuickBooks sync for a data type.
func (c *Client) SyncYardiToQB(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/sync/yardi-to-qb", req)
	if err != nil {
		return nil, fmt.Errorf("failed to sync yardi to quickbooks: %w", err)
	}

	var result SyncResponse
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to process sync response: %w", err)
	}

	return &result, nil
}

// SyncQBToYardi runs one QuickBooks-to-Yardi export for a data type.
func (c *Client) SyncQBToYardi(ctx context.Context, req QBToYardiRequest) (*SyncResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/sync/qb-to-yardi", req)
	if err != nil {
		return nil, fmt.Errorf("failed to sync quickbooks to yardi: %w", err)
	}

	var result SyncResponse
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to process sync response: %w", err)
	}

	return &result, nil
}

// SyncStatus polls the state of a previously started sync.
func (c *Client) SyncStatus(ctx context.Context, syncID string, direction Direction) (*SyncResponse, error) {
	path := fmt.Sprintf("/sync/yardi-to-qb/%s/status", url.PathEscape(syncID))
	if direction == DirectionQBToYardi {
		path = fmt.Sprintf("/sync/qb-to-yardi/%s/status", url.PathEscape(syncID))
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}

	var result SyncResponse
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to process sync status response: %w", err)
	}

	return &result, nil
}

// Health probes the backend's health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check backend health: %w", err)
	}

	var result HealthResponse
	if err := c.handleResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

func (c *Client) handleResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request failed: %s", resp.Status),
			Body:       string(raw),
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}

	return nil
}
