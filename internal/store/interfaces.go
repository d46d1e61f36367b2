package store

import (
	"context"
	"errors"

	"github.com/switchyardhq/switchyard/internal/model"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// EventLogStore persists received webhooks.
type EventLogStore interface {
	// CreateOrGet upserts by dedupe key. The bool reports whether a new row
	// was created; false means this payload was seen before.
	CreateOrGet(ctx context.Context, log *model.EventLog) (*model.EventLog, bool, error)
	GetByID(ctx context.Context, id int64) (*model.EventLog, error)
	MarkProcessed(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}

// DispatchStore persists classification and dispatch outcomes.
type DispatchStore interface {
	Create(ctx context.Context, rec *model.DispatchRecord) (*model.DispatchRecord, error)
	ListByEventLog(ctx context.Context, eventLogID int64) ([]model.DispatchRecord, error)
}
