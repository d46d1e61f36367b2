package handlers

import (
	"context"
	"log/slog"

	"github.com/switchyardhq/switchyard/internal/event"
)

// Orchestrator is the catch-all handler: TASK events, unroutable categories,
// and references to unregistered handlers all land here. It logs enough of
// the classification for a person to triage what fell through.
type Orchestrator struct{}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{}
}

func (o *Orchestrator) Handle(ctx context.Context, ev event.ClassifiedEvent) error {
	slog.InfoContext(ctx, "orchestrator accepted event",
		"webhook_id", ev.Event.WebhookID,
		"source", ev.Event.Source,
		"category", ev.Classification.Category,
		"confidence", ev.Classification.Confidence,
		"actions", ev.Classification.Actions,
		"tier", ev.Classification.Tier)
	return nil
}
