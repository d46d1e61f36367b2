// Package handlers provides the built-in event handlers wired into the
// dispatcher by default. Each is a thin adapter that acknowledges the event
// and records what a downstream system would do with it; real integrations
// register their own handlers in their place.
package handlers

import (
	"context"
	"log/slog"
	"slices"

	"github.com/switchyardhq/switchyard/internal/event"
)

// Scheduler receives CALENDAR-routed events and logs the scheduling intent,
// including whether the classification actually recommended a schedule
// action. That flag makes misroutes visible in the logs.
type Scheduler struct{}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Handle(ctx context.Context, ev event.ClassifiedEvent) error {
	wantsSchedule := slices.Contains(ev.Classification.Actions, event.ActionSchedule)
	slog.InfoContext(ctx, "scheduler accepted event",
		"webhook_id", ev.Event.WebhookID,
		"source", ev.Event.Source,
		"category", ev.Classification.Category,
		"schedule_action", wantsSchedule)
	return nil
}
