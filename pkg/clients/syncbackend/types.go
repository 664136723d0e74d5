package syncbackend

// DataType names a class of financial records handled by the sync backend.
type DataType string

const (
	DataTypeBills            DataType = "bills"
	DataTypeReceipts         DataType = "receipts"
	DataTypeJournals         DataType = "journals"
	DataTypeBillPayments     DataType = "bill_payments"
	DataTypeCustomerPayments DataType = "customer_payments"
	DataTypeAll              DataType = "all"
)

// Direction identifies which way records flow during a sync.
type Direction string

const (
	DirectionYardiToQB Direction = "yardi_to_qb"
	DirectionQBToYardi Direction = "qb_to_yardi"
)

// SyncStatus is the backend's lifecycle state for one sync operation.
type SyncStatus string

const (
	SyncStatusInit       SyncStatus = "init"
	SyncStatusInProgress SyncStatus = "in_progress"
	SyncStatusCompleted  SyncStatus = "completed"
	SyncStatusFailed     SyncStatus = "failed"
)

// SyncRequest asks the backend to move records from Yardi into QuickBooks.
type SyncRequest struct {
	DataType     DataType `json:"data_type"`
	PropertyCode string   `json:"property_code"`
	SourceSystem string   `json:"source_system"`
	TargetSystem string   `json:"target_system"`
}

// QBToYardiRequest asks the backend to export QuickBooks records for Yardi.
type QBToYardiRequest struct {
	DataType     DataType `json:"data_type"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	PropertyCode string   `json:"property_code"`
	OutputDir    string   `json:"output_dir"`
}

// SyncResponse is the backend's report for one sync operation.
type SyncResponse struct {
	Success          bool       `json:"success"`
	SyncID           string     `json:"sync_id"`
	Status           SyncStatus `json:"status"`
	Message          string     `json:"message"`
	Timestamp        string     `json:"timestamp"`
	RecordsProcessed *int       `json:"records_processed,omitempty"`
	OutputFiles      []string   `json:"output_files,omitempty"`
	Errors           []string   `json:"errors,omitempty"`
}

// AuthStatusResponse reports the backend's QuickBooks OAuth session state.
type AuthStatusResponse struct {
	Authenticated  bool   `json:"authenticated"`
	Environment    string `json:"environment"`
	RealmID        string `json:"realm_id,omitempty"`
	TokenExpiresAt string `json:"token_expires_at,omitempty"`
	Message        string `json:"message"`
	Timestamp      string `json:"timestamp"`
}

// AuthResponse carries the authorization URL for an OAuth redirect.
type AuthResponse struct {
	Success   bool   `json:"success"`
	AuthURL   string `json:"auth_url"`
	State     string `json:"state"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// TokenResponse is the result of an OAuth code exchange.
type TokenResponse struct {
	Success   bool   `json:"success"`
	RealmID   string `json:"realm_id,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// DisconnectResponse is the result of revoking the backend's OAuth session.
type DisconnectResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse is the backend health probe result.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
