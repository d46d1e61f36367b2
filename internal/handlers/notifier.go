package handlers

import (
	"context"
	"log/slog"
	"slices"

	"github.com/switchyardhq/switchyard/internal/event"
)

// Notifier receives COMMUNICATION-routed events. Events whose classification
// recommended only ignore are dropped silently; everything else is logged as
// a notification.
type Notifier struct{}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Handle(ctx context.Context, ev event.ClassifiedEvent) error {
	if !slices.Contains(ev.Classification.Actions, event.ActionNotify) {
		slog.DebugContext(ctx, "notifier skipping event without notify action",
			"webhook_id", ev.Event.WebhookID,
			"actions", ev.Classification.Actions)
		return nil
	}
	slog.InfoContext(ctx, "notification emitted",
		"webhook_id", ev.Event.WebhookID,
		"source", ev.Event.Source,
		"category", ev.Classification.Category,
		"reasoning", ev.Classification.Reasoning)
	return nil
}
