package n8n

import (
	"net/http"
	"time"
)

// ClientOption represents an option for configuring the n8n client
type ClientOption func(*ClientConfig)

// ClientConfig holds the configuration for the n8n client
type ClientConfig struct {
	// BaseURL is the engine's root address, e.g. http://localhost:5678.
	BaseURL string
	// APIToken authenticates REST calls. JWT-shaped tokens are sent as a
	// bearer Authorization header, plain keys via X-N8N-API-KEY.
	APIToken     string
	Timeout      time.Duration
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      "http://localhost:5678",
		Timeout:      10 * time.Second,
		PollInterval: time.Second,
	}
}

// WithBaseURL sets the engine base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.BaseURL = baseURL
	}
}

// WithAPIToken sets the REST API token or key
func WithAPIToken(token string) ClientOption {
	return func(c *ClientConfig) {
		c.APIToken = token
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithPollInterval sets the execution-status poll interval
func WithPollInterval(interval time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.PollInterval = interval
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = httpClient
	}
}
