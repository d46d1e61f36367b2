// Package dispatch routes classified events to named handlers through a
// priority-ordered rule table, falling back to per-category defaults, and
// invokes the chosen handler with panic isolation.
package dispatch

import (
	"context"

	"github.com/switchyardhq/switchyard/internal/event"
)

// Handler names wired by default. Orchestrator doubles as the fallback for
// unroutable events and unregistered handler references.
const (
	HandlerScheduler    = "scheduler"
	HandlerNotifier     = "notifier"
	HandlerOrchestrator = "orchestrator"
)

// EventHandler processes one classified event. A returned error marks the
// dispatch as failed but never propagates past the dispatcher.
type EventHandler interface {
	Handle(ctx context.Context, ev event.ClassifiedEvent) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, ev event.ClassifiedEvent) error

func (f HandlerFunc) Handle(ctx context.Context, ev event.ClassifiedEvent) error {
	return f(ctx, ev)
}
