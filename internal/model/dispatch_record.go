package model

import (
	"encoding/json"
	"time"
)

// DispatchRecord is the persisted outcome of classifying and dispatching one
// event: which handler ran, whether it succeeded, and what the classification
// cost. Classification and Routing hold the full result objects as JSON for
// offline analysis.
type DispatchRecord struct {
	ID               int64           `json:"id"`
	EventLogID       int64           `json:"event_log_id"`
	WebhookID        string          `json:"webhook_id"`
	Category         string          `json:"category"`
	Handler          string          `json:"handler"`
	Success          bool            `json:"success"`
	Error            *string         `json:"error,omitempty"`
	Confidence       float64         `json:"confidence"`
	Tier             string          `json:"tier"`
	Escalated        bool            `json:"escalated"`
	Cost             float64         `json:"cost"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	Classification   json.RawMessage `json:"classification"`
	Routing          json.RawMessage `json:"routing"`
	CreatedAt        time.Time       `json:"created_at"`
}
