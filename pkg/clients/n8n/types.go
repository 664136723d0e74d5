package n8n

// Workflow is the normalized view of an n8n workflow from the REST API.
type Workflow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Nodes  int    `json:"nodes"`
}

// ExecutionResult is the outcome of a workflow trigger.
type ExecutionResult struct {
	ExecutionID string
	Data        any
}

// AuthType names how a configured token is presented to the engine.
type AuthType string

const (
	AuthNone        AuthType = "none"
	AuthBearerToken AuthType = "bearer-token"
	AuthAPIKey      AuthType = "api-key"
)
