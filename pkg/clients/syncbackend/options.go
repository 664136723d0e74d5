package syncbackend

import (
	"net/http"
	"time"
)

// ClientOption represents an option for configuring the sync backend client
type ClientOption func(*ClientConfig)

// ClientConfig holds the configuration for the sync backend client
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryMax   int
	HTTPClient *http.Client
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:  "http://localhost:8000/api/v1",
		Timeout:  30 * time.Second,
		RetryMax: 2,
	}
}

// WithBaseURL sets the base URL for the backend API
func WithBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.BaseURL = baseURL
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithRetryMax sets how many times transient failures are retried
func WithRetryMax(retries int) ClientOption {
	return func(c *ClientConfig) {
		c.RetryMax = retries
	}
}

// WithHTTPClient sets a custom HTTP client used beneath the retry layer
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = httpClient
	}
}
