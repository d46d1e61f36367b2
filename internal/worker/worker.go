// Package worker consumes queued events, runs them through the pipeline,
// and records the outcome. A failed dispatch is a recorded result, not a
// redelivery; only infrastructure errors (store or queue failures) leave the
// message unacked for retry.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/switchyardhq/switchyard/common/id"
	"github.com/switchyardhq/switchyard/common/logger"
	"github.com/switchyardhq/switchyard/internal/event"
	"github.com/switchyardhq/switchyard/internal/model"
	"github.com/switchyardhq/switchyard/internal/pipeline"
	"github.com/switchyardhq/switchyard/internal/queue"
	"github.com/switchyardhq/switchyard/internal/store"
)

type Config struct {
	MaxAttempts int
}

type Worker struct {
	consumer   Consumer
	eventLogs  store.EventLogStore
	dispatches store.DispatchStore
	processor  EventProcessor
	cfg        Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, eventLogs store.EventLogStore, dispatches store.DispatchStore, processor EventProcessor, cfg Config) *Worker {
	return &Worker{
		consumer:   consumer,
		eventLogs:  eventLogs,
		dispatches: dispatches,
		processor:  processor,
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"event_log_id", msg.EventLogID)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"event_log_id", msg.EventLogID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage handles one queued event end to end. Exported so it can be
// reused by the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:  "switchyard.worker",
		MessageID:  &msg.ID,
		EventLogID: &msg.EventLogID,
		WebhookID:  &msg.WebhookID,
		EventType:  &msg.EventType,
	})

	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_message",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()

	slog.InfoContext(ctx, "processing message", "attempt", msg.Attempt)

	eventLog, err := w.eventLogs.GetByID(ctx, msg.EventLogID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Poison message: the row will never appear. Ack to stop the loop.
			slog.ErrorContext(ctx, "event log not found, acknowledging poison message")
			return w.consumer.Ack(ctx, msg)
		}
		return fmt.Errorf("loading event log: %w", err)
	}

	if eventLog.ProcessedAt != nil {
		slog.InfoContext(ctx, "event already processed, skipping")
		return w.consumer.Ack(ctx, msg)
	}

	result := w.processor.Process(ctx, event.WebhookEvent{
		Source:    eventLog.Source,
		WebhookID: eventLog.WebhookID,
		Timestamp: eventLog.CreatedAt.UTC().Format(time.RFC3339),
		Payload:   eventLog.Payload,
	})

	// Outcome recording is best effort: losing a record must not re-run the
	// handler.
	if err := w.recordOutcome(ctx, eventLog, result); err != nil {
		slog.ErrorContext(ctx, "failed to persist dispatch record", "error", err)
	}

	if result.Dispatch.Success {
		if err := w.eventLogs.MarkProcessed(ctx, eventLog.ID); err != nil {
			return fmt.Errorf("marking event processed: %w", err)
		}
	} else {
		if err := w.eventLogs.MarkFailed(ctx, eventLog.ID, result.Dispatch.Error); err != nil {
			return fmt.Errorf("marking event failed: %w", err)
		}
		slog.WarnContext(ctx, "dispatch failed, outcome recorded",
			"handler", result.Dispatch.Handler,
			"error", result.Dispatch.Error)
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Log but don't fail. The message will be reclaimed, and the
		// processed-at check makes the replay a no-op.
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}

	return nil
}

func (w *Worker) recordOutcome(ctx context.Context, eventLog *model.EventLog, result pipeline.Result) error {
	classificationJSON, err := json.Marshal(result.Classification)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	routingJSON, err := json.Marshal(result.Dispatch.RoutingDecision)
	if err != nil {
		return fmt.Errorf("marshal routing decision: %w", err)
	}

	var dispatchErr *string
	if result.Dispatch.Error != "" {
		dispatchErr = &result.Dispatch.Error
	}

	_, err = w.dispatches.Create(ctx, &model.DispatchRecord{
		ID:               id.New(),
		EventLogID:       eventLog.ID,
		WebhookID:        eventLog.WebhookID,
		Category:         result.Dispatch.Category,
		Handler:          result.Dispatch.Handler,
		Success:          result.Dispatch.Success,
		Error:            dispatchErr,
		Confidence:       result.Classification.Confidence,
		Tier:             string(result.Classification.Tier),
		Escalated:        result.Classification.Escalated,
		Cost:             result.Classification.Cost,
		ProcessingTimeMs: result.Dispatch.ProcessingTimeMs,
		Classification:   classificationJSON,
		Routing:          routingJSON,
	})
	return err
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"event_log_id", msg.EventLogID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"event_log_id", msg.EventLogID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
