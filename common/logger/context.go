package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so pipeline context (webhook_id, event_log_id,
// category, etc.) shows up in every log statement without being threaded by hand.
type LogFields struct {
	EventLogID *int64  // Event log row that triggered this work
	WebhookID  *string // Webhook delivery ID
	MessageID  *string // Redis stream message ID
	Source     *string // Webhook source (e.g., "github", "linear", "google")
	EventType  *string // Canonical event type (e.g., "issue_created")
	Category   *string // Classification category once known
	Handler    *string // Handler the event was routed to
	Component  string  // Component name (OTel semantic convention style, e.g., "switchyard.worker")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// mergeFields merges two LogFields, preferring non-nil/non-empty values from 'new'.
func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.EventLogID != nil {
		result.EventLogID = new.EventLogID
	}
	if new.WebhookID != nil {
		result.WebhookID = new.WebhookID
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.Source != nil {
		result.Source = new.Source
	}
	if new.EventType != nil {
		result.EventType = new.EventType
	}
	if new.Category != nil {
		result.Category = new.Category
	}
	if new.Handler != nil {
		result.Handler = new.Handler
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{EventLogID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like payloads or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
