package model

import (
	"encoding/json"
	"time"
)

// EventLog is the durable record of one received webhook: the raw payload
// plus ingest metadata. DedupeKey is the content fingerprint; a repeated
// delivery upserts onto the same row instead of creating a new one.
type EventLog struct {
	ID              int64           `json:"id"`
	WebhookID       string          `json:"webhook_id"`
	Source          string          `json:"source"`
	EventType       string          `json:"event_type"`
	Payload         json.RawMessage `json:"payload"`
	DedupeKey       string          `json:"dedupe_key"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	ProcessingError *string         `json:"processing_error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
