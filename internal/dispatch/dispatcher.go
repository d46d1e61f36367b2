package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/switchyardhq/switchyard/internal/event"
)

// defaultHandlers routes categories with no matching rule. Unlisted
// categories fall through to the orchestrator.
var defaultHandlers = map[string]string{
	event.CategoryCalendar:      HandlerScheduler,
	event.CategoryTask:          HandlerOrchestrator,
	event.CategoryCommunication: HandlerNotifier,
}

// Observer is notified after every dispatch. Observer panics are swallowed;
// observability never affects the dispatch outcome.
type Observer interface {
	ObserveDispatch(ctx context.Context, res event.DispatchResult)
}

// Dispatcher selects a handler for each classified event and invokes it.
// Handler selection prefers the highest-priority matching rule, then the
// category default, then the orchestrator. Dispatch never returns an error;
// every failure mode is folded into the DispatchResult.
type Dispatcher struct {
	registry  *Registry
	rules     *RuleStore
	observers []Observer
}

func New(registry *Registry, observers ...Observer) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		rules:     NewRuleStore(),
		observers: observers,
	}
}

func (d *Dispatcher) RegisterHandler(name string, h EventHandler) {
	d.registry.Register(name, h)
}

func (d *Dispatcher) AddRule(rule event.RouteConfig) {
	d.rules.Add(rule)
}

// RemoveRules drops every rule the predicate selects and reports the count.
func (d *Dispatcher) RemoveRules(pred func(event.RouteConfig) bool) int {
	return d.rules.Remove(pred)
}

func (d *Dispatcher) ClearRules() {
	d.rules.Clear()
}

func (d *Dispatcher) Rules() []event.RouteConfig {
	return d.rules.Snapshot()
}

// Route decides which handler an event goes to without invoking it. The
// decision carries the matched rule, if any, and human-readable reasoning.
func (d *Dispatcher) Route(ev event.ClassifiedEvent) event.RoutingDecision {
	category := ev.Classification.Category
	decision := event.RoutingDecision{
		Category:   category,
		Confidence: ev.Classification.Confidence,
		Metadata: map[string]any{
			"webhook_id":      ev.Event.WebhookID,
			"source":          ev.Event.Source,
			"tier":            ev.Classification.Tier,
			"has_custom_rule": false,
		},
	}

	if rule := d.bestRule(ev); rule != nil {
		decision.Metadata["has_custom_rule"] = true
		decision.Handler = rule.Handler
		decision.MatchedRule = rule
		decision.Reasoning = fmt.Sprintf("rule match: category %s priority %d", rule.Category, rule.Priority)
	} else if handler, ok := defaultHandlers[category]; ok {
		decision.Handler = handler
		decision.Reasoning = fmt.Sprintf("default route for category %s", category)
	} else {
		decision.Handler = HandlerOrchestrator
		decision.Reasoning = fmt.Sprintf("no route for category %s, using fallback", category)
	}

	// A rule can name a handler nobody registered. Fall back rather than
	// letting the event die.
	if _, ok := d.registry.Get(decision.Handler); !ok && decision.Handler != HandlerOrchestrator {
		decision.Reasoning = fmt.Sprintf("handler %s not registered, using fallback (%s)",
			decision.Handler, decision.Reasoning)
		decision.Handler = HandlerOrchestrator
	}
	return decision
}

// bestRule returns the highest-priority matching rule, or nil. Ties keep the
// earliest-registered rule.
func (d *Dispatcher) bestRule(ev event.ClassifiedEvent) *event.RouteConfig {
	var best *event.RouteConfig
	for _, rule := range d.rules.Snapshot() {
		if !matchRule(rule, ev) {
			continue
		}
		if best == nil || rule.Priority > best.Priority {
			r := rule
			best = &r
		}
	}
	return best
}

// Dispatch routes the event and invokes the selected handler. Handler errors
// and panics surface as Success=false results; they never propagate.
func (d *Dispatcher) Dispatch(ctx context.Context, ev event.ClassifiedEvent) event.DispatchResult {
	decision := d.Route(ev)
	result := event.DispatchResult{
		Handler:         decision.Handler,
		Category:        decision.Category,
		WebhookID:       ev.Event.WebhookID,
		RoutingDecision: decision,
	}

	handler, ok := d.registry.Get(decision.Handler)
	if !ok {
		result.Error = fmt.Sprintf("no handler registered for %q", decision.Handler)
		slog.ErrorContext(ctx, "dispatch failed",
			"webhook_id", ev.Event.WebhookID,
			"handler", decision.Handler,
			"error", result.Error)
		d.notify(ctx, result)
		return result
	}

	start := time.Now()
	err := invoke(ctx, handler, ev)
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	if err != nil {
		result.Error = err.Error()
		slog.ErrorContext(ctx, "handler failed",
			"webhook_id", ev.Event.WebhookID,
			"handler", decision.Handler,
			"category", decision.Category,
			"duration_ms", result.ProcessingTimeMs,
			"error", err)
	} else {
		result.Success = true
		slog.InfoContext(ctx, "event dispatched",
			"webhook_id", ev.Event.WebhookID,
			"handler", decision.Handler,
			"category", decision.Category,
			"duration_ms", result.ProcessingTimeMs)
	}

	d.notify(ctx, result)
	return result
}

// invoke runs the handler with panic isolation.
func invoke(ctx context.Context, h EventHandler, ev event.ClassifiedEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

func (d *Dispatcher) notify(ctx context.Context, res event.DispatchResult) {
	for _, obs := range d.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.WarnContext(ctx, "dispatch observer panicked", "error", r)
				}
			}()
			obs.ObserveDispatch(ctx, res)
		}()
	}
}
