// Package pipeline composes the classifier and dispatcher into the single
// entry point workers call per event. Construct once and share; both halves
// are safe for concurrent use.
package pipeline

import (
	"context"

	"github.com/switchyardhq/switchyard/common/logger"
	"github.com/switchyardhq/switchyard/internal/classify"
	"github.com/switchyardhq/switchyard/internal/dispatch"
	"github.com/switchyardhq/switchyard/internal/event"
)

type Pipeline struct {
	classifier *classify.Classifier
	dispatcher *dispatch.Dispatcher
}

func New(classifier *classify.Classifier, dispatcher *dispatch.Dispatcher) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		dispatcher: dispatcher,
	}
}

// Result pairs the classification with the dispatch outcome for one event.
type Result struct {
	Classification event.ClassificationResult
	Dispatch       event.DispatchResult
}

// Process classifies one event and dispatches it. It never returns an error:
// classification degrades to UNKNOWN and dispatch failures are reported in
// the result, so the caller decides what failure means for the transport.
func (p *Pipeline) Process(ctx context.Context, ev event.WebhookEvent) Result {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WebhookID: logger.Ptr(ev.WebhookID),
		Source:    logger.Ptr(ev.Source),
	})

	classification := p.classifier.Classify(ctx, ev)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Category: logger.Ptr(classification.Category),
	})

	dispatched := p.dispatcher.Dispatch(ctx, event.ClassifiedEvent{
		Event:          ev,
		Classification: classification,
	})

	return Result{
		Classification: classification,
		Dispatch:       dispatched,
	}
}

// Classifier exposes the classifier for cache and threshold management.
func (p *Pipeline) Classifier() *classify.Classifier {
	return p.classifier
}

// Dispatcher exposes the dispatcher for handler and rule management.
func (p *Pipeline) Dispatcher() *dispatch.Dispatcher {
	return p.dispatcher
}
