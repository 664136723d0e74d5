package makecom

// Scenario is the normalized view of a Make.com scenario. Field values are
// best-effort: the listing endpoint varies its shape between accounts, so
// absent fields fall back to safe placeholders.
type Scenario struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	Enabled      bool   `json:"enabled"`
	HasBlueprint bool   `json:"hasBlueprint"`
}

// Team is a Make.com team discovered through the auxiliary lookup.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WebhookResult is the outcome of a direct webhook trigger.
type WebhookResult struct {
	StatusCode int
	Response   any
	RawBody    string
}
