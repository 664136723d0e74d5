// Package n8n provides a client for a locally running n8n automation engine.
// It talks to the engine's /rest API and to workflow webhook endpoints.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elas-hq/elas-gateway/internal/normalize"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const restPrefix = "/rest"

// webhookNodeType identifies webhook trigger nodes inside a workflow graph.
const webhookNodeType = "n8n-nodes-base.webhook"

// ErrExecutionTimeout is returned by ExecuteAndWait when the execution does
// not finish within the wait budget.
var ErrExecutionTimeout = errors.New("n8n: execution timed out")

// Client talks to a local n8n instance over its REST API.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new n8n client with the given options
func NewClient(options ...ClientOption) *Client {
	config := DefaultConfig()

	for _, option := range options {
		option(config)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

// AuthType reports how the configured token will be presented, without
// exposing the token itself. Personal access tokens are JWTs and go in an
// Authorization header; plain API keys use the X-N8N-API-KEY header.
func (c *Client) AuthType() AuthType {
	if c.config.APIToken == "" {
		return AuthNone
	}
	if isJWT(c.config.APIToken) {
		return AuthBearerToken
	}
	return AuthAPIKey
}

func isJWT(token string) bool {
	_, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	return err == nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")

	switch c.AuthType() {
	case AuthBearerToken:
		req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	case AuthAPIKey:
		req.Header.Set("X-N8N-API-Key", c.config.APIToken)
	}
}

// ListWorkflows returns the workflows known to the running engine. Failures
// of any kind degrade to an empty slice.
func (c *Client) ListWorkflows(ctx context.Context) []Workflow {
	payload, err := c.getJSON(ctx, restPrefix+"/workflows")
	if err != nil {
		log.Error().Err(err).Msg("Failed to list n8n workflows")
		return []Workflow{}
	}

	items := normalize.Collection(payload, "data", "items")
	workflows := make([]Workflow, 0, len(items))

	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		nodes, _ := item["nodes"].([]any)

		workflows = append(workflows, Workflow{
			ID:     normalize.FirstString(item, "id"),
			Name:   normalize.FirstString(item, "name"),
			Active: normalize.Enabled(item),
			Nodes:  len(nodes),
		})
	}

	return workflows
}

// TriggerWorkflow runs a workflow through the REST API, passing the optional
// data payload through to the execution.
func (c *Client) TriggerWorkflow(ctx context.Context, workflowID string, data any) (*ExecutionResult, error) {
	if data == nil {
		data = map[string]any{}
	}

	body, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode trigger payload: %w", err)
	}

	path := fmt.Sprintf("%s/workflows/%s/run", restPrefix, workflowID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build trigger request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to trigger workflow: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("n8n trigger failed: HTTP %d: %s", resp.StatusCode, string(detail))
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode trigger response: %w", err)
	}

	return &ExecutionResult{
		ExecutionID: normalize.FirstString(result, "executionId", "execution_id", "id"),
		Data:        result,
	}, nil
}

// GetExecution fetches the current state of an execution. A nil map and nil
// error means the execution could not be read.
func (c *Client) GetExecution(ctx context.Context, executionID string) map[string]any {
	payload, err := c.getJSON(ctx, fmt.Sprintf("%s/executions/%s", restPrefix, executionID))
	if err != nil {
		log.Error().Err(err).Str("execution_id", executionID).Msg("Failed to read execution status")
		return nil
	}

	execution, _ := payload.(map[string]any)
	return execution
}

// ExecuteAndWait triggers a workflow and polls its execution until it
// reports finished or the wait budget is exceeded.
func (c *Client) ExecuteAndWait(ctx context.Context, workflowID string, data any, maxWait time.Duration) (*ExecutionResult, error) {
	triggered, err := c.TriggerWorkflow(ctx, workflowID, data)
	if err != nil {
		return nil, err
	}

	if triggered.ExecutionID == "" {
		return nil, errors.New("n8n: no execution ID returned")
	}

	deadline := time.Now().Add(maxWait)

	for time.Now().Before(deadline) {
		execution := c.GetExecution(ctx, triggered.ExecutionID)

		if finished, ok := execution["finished"].(bool); ok && finished {
			return &ExecutionResult{
				ExecutionID: normalize.FirstString(execution, "id", "executionId"),
				Data:        execution,
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.config.PollInterval):
		}
	}

	return nil, ErrExecutionTimeout
}

// WorkflowWebhookURL discovers the webhook endpoint of a workflow by locating
// its webhook trigger node. Inactive workflows expose the test endpoint
// instead of the production one. Returns "" when the workflow has no webhook
// node or cannot be read.
func (c *Client) WorkflowWebhookURL(ctx context.Context, workflowID string) string {
	payload, err := c.getJSON(ctx, fmt.Sprintf("%s/workflows/%s", restPrefix, workflowID))
	if err != nil {
		log.Error().Err(err).Str("workflow_id", workflowID).Msg("Failed to read workflow for webhook discovery")
		return ""
	}

	workflow, ok := payload.(map[string]any)
	if !ok {
		return ""
	}

	// Nodes and the active flag moved under "data" between engine versions.
	nodes, _ := workflow["nodes"].([]any)
	active, hasActive := workflow["active"].(bool)

	if inner, ok := workflow["data"].(map[string]any); ok {
		if nodes == nil {
			nodes, _ = inner["nodes"].([]any)
		}
		if !hasActive {
			active, _ = inner["active"].(bool)
		}
	}

	for _, raw := range nodes {
		node, ok := raw.(map[string]any)
		if !ok || node["type"] != webhookNodeType {
			continue
		}

		params, _ := node["parameters"].(map[string]any)
		path := normalize.FirstString(params, "path")
		if path == "" {
			continue
		}

		segment := "webhook-test"
		if active {
			segment = "webhook"
		}

		return fmt.Sprintf("%s/%s/%s", c.config.BaseURL, segment, path)
	}

	return ""
}

// TriggerWebhook posts the payload to a workflow webhook endpoint.
func (c *Client) TriggerWebhook(ctx context.Context, webhookURL string, data any) (*ExecutionResult, error) {
	if data == nil {
		data = map[string]any{}
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("n8n webhook failed: HTTP %d", resp.StatusCode)
	}

	var result any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		result = nil
	}

	execution := map[string]any{}
	if m, ok := result.(map[string]any); ok {
		execution = m
	}

	return &ExecutionResult{
		ExecutionID: normalize.FirstString(execution, "executionId", "execution_id"),
		Data:        result,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("n8n: HTTP %d from %s", resp.StatusCode, path)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("n8n: malformed response from %s: %w", path, err)
	}

	return payload, nil
}
