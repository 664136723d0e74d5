// Package quickbooks provides a minimal client for running QBO SQL-style
// queries directly against the QuickBooks Online company endpoint. The OAuth
// session itself lives in the sync backend; this client uses a pre-issued
// access token from the environment for ad-hoc reads.
package quickbooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	productionBaseURL = "https://quickbooks.api.intuit.com"
	sandboxBaseURL    = "https://sandbox-quickbooks.api.intuit.com"

	// minorVersion pins the QBO API feature level the queries were written for.
	minorVersion = "75"
)

// ErrMissingAccessToken is returned when no access token is configured.
var ErrMissingAccessToken = errors.New("quickbooks: access token is not configured")

// ErrMissingCompanyID is returned when no company (realm) ID is configured.
var ErrMissingCompanyID = errors.New("quickbooks: company ID is not configured")

// QueryError preserves the upstream status and body of a failed query.
type QueryError struct {
	StatusCode int
	Body       string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("quickbooks: query failed with status %d", e.StatusCode)
}

// Config holds the settings for direct QBO access.
type Config struct {
	AccessToken string
	CompanyID   string
	Production  bool
	Timeout     time.Duration
	// BaseURL overrides the environment-derived endpoint, for tests.
	BaseURL string
}

// Client runs read-only queries against QuickBooks Online.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a QuickBooks query client.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

func (c *Client) baseURL() string {
	if c.config.BaseURL != "" {
		return c.config.BaseURL
	}
	if c.config.Production {
		return productionBaseURL
	}
	return sandboxBaseURL
}

// Query runs one QBO query and returns the decoded response body.
func (c *Client) Query(ctx context.Context, query string) (map[string]any, error) {
	if c.config.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}
	if c.config.CompanyID == "" {
		return nil, ErrMissingCompanyID
	}

	endpoint := fmt.Sprintf("%s/v3/company/%s/query?query=%s&minorversion=%s",
		c.baseURL(),
		url.PathEscape(c.config.CompanyID),
		url.QueryEscape(query),
		minorVersion,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/text")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quickbooks request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &QueryError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	return result, nil
}
