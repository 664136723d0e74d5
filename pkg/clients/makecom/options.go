package makecom

import (
	"net/http"
	"time"
)

// ClientOption represents an option for configuring the Make.com client
type ClientOption func(*ClientConfig)

// ClientConfig holds the configuration for the Make.com client
type ClientConfig struct {
	BaseURL         string
	ValidateTimeout time.Duration
	ListTimeout     time.Duration
	WebhookTimeout  time.Duration
	HTTPClient      *http.Client
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:         "https://api.make.com",
		ValidateTimeout: 5 * time.Second,
		ListTimeout:     10 * time.Second,
		WebhookTimeout:  10 * time.Second,
	}
}

// WithBaseURL sets the base URL for the Make.com API
func WithBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.BaseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = httpClient
	}
}

// WithWebhookTimeout sets the timeout budget for webhook triggers
func WithWebhookTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.WebhookTimeout = timeout
	}
}

// WithValidateTimeout sets the timeout budget for key validation
func WithValidateTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.ValidateTimeout = timeout
	}
}
