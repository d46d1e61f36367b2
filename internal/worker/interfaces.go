package worker

import (
	"context"

	"github.com/switchyardhq/switchyard/internal/event"
	"github.com/switchyardhq/switchyard/internal/pipeline"
	"github.com/switchyardhq/switchyard/internal/queue"
)

// Consumer is the slice of the redis consumer the worker needs. An interface
// so tests can script message delivery.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// EventProcessor runs the classification pipeline for one event.
type EventProcessor interface {
	Process(ctx context.Context, ev event.WebhookEvent) pipeline.Result
}
