// Package service holds the ingest-side business logic: accept a raw
// webhook, dedupe it, persist it, and hand it to the queue for the workers.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/switchyardhq/switchyard/common/id"
	"github.com/switchyardhq/switchyard/internal/event"
	"github.com/switchyardhq/switchyard/internal/mapper"
	"github.com/switchyardhq/switchyard/internal/model"
	"github.com/switchyardhq/switchyard/internal/queue"
	"github.com/switchyardhq/switchyard/internal/store"
)

// EventTypeUnknown is recorded when no mapper recognizes the webhook shape.
// Unknown events still flow through the pipeline; the classifier works from
// the raw payload, not the mapped type.
const EventTypeUnknown = "unknown"

type IngestParams struct {
	Source    string            `json:"source"`
	WebhookID string            `json:"webhook_id,omitempty"` // provider delivery id if it sent one
	Timestamp string            `json:"timestamp,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Payload   json.RawMessage   `json:"payload"`
	TraceID   *string           `json:"trace_id,omitempty"`
}

type IngestResult struct {
	EventLog   *model.EventLog
	EventType  string
	Enqueued   bool
	Duplicated bool
}

type IngestService interface {
	Ingest(ctx context.Context, params IngestParams) (*IngestResult, error)
}

type ingestService struct {
	eventLogs store.EventLogStore
	queue     queue.Producer
	logger    *slog.Logger
}

func NewIngestService(eventLogs store.EventLogStore, queue queue.Producer, logger *slog.Logger) IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ingestService{
		eventLogs: eventLogs,
		queue:     queue,
		logger:    logger,
	}
}

func (s *ingestService) Ingest(ctx context.Context, params IngestParams) (*IngestResult, error) {
	if params.Source == "" {
		return nil, fmt.Errorf("source is required")
	}
	if len(params.Payload) == 0 {
		return nil, fmt.Errorf("payload is required")
	}

	webhookID := params.WebhookID
	if webhookID == "" {
		webhookID = uuid.NewString()
	}

	eventType := s.mapEventType(ctx, params)
	dedupeKey := event.Fingerprint(params.Source, params.Payload)

	eventLog, created, err := s.eventLogs.CreateOrGet(ctx, &model.EventLog{
		ID:        id.New(),
		WebhookID: webhookID,
		Source:    params.Source,
		EventType: eventType,
		Payload:   params.Payload,
		DedupeKey: dedupeKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating event log: %w", err)
	}

	enqueued := false
	if created {
		if err := s.queue.Enqueue(ctx, queue.EventMessage{
			EventLogID: eventLog.ID,
			WebhookID:  eventLog.WebhookID,
			Source:     eventLog.Source,
			EventType:  eventType,
			TraceID:    params.TraceID,
			Attempt:    1,
		}); err != nil {
			return nil, fmt.Errorf("enqueueing event: %w", err)
		}
		enqueued = true
	} else {
		s.logger.InfoContext(ctx, "duplicate webhook deduped",
			"event_log_id", eventLog.ID,
			"webhook_id", eventLog.WebhookID,
			"source", params.Source,
			"dedupe_key", dedupeKey)
	}

	return &IngestResult{
		EventLog:   eventLog,
		EventType:  eventType,
		Enqueued:   enqueued,
		Duplicated: !created,
	}, nil
}

// mapEventType normalizes the provider event shape. Failures are logged at
// debug and degrade to unknown rather than rejecting the webhook.
func (s *ingestService) mapEventType(ctx context.Context, params IngestParams) string {
	m, ok := mapper.ForSource(params.Source)
	if !ok {
		return EventTypeUnknown
	}

	var body map[string]any
	if err := json.Unmarshal(params.Payload, &body); err != nil {
		s.logger.DebugContext(ctx, "payload is not a JSON object", "source", params.Source, "error", err)
		return EventTypeUnknown
	}

	eventType, err := m.Map(ctx, body, params.Headers)
	if err != nil {
		s.logger.DebugContext(ctx, "event type mapping failed", "source", params.Source, "error", err)
		return EventTypeUnknown
	}
	return string(eventType)
}
