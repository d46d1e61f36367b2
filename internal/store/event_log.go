package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/switchyardhq/switchyard/internal/model"
)

type eventLogStore struct {
	pool *pgxpool.Pool
}

func newEventLogStore(pool *pgxpool.Pool) EventLogStore {
	return &eventLogStore{pool: pool}
}

const eventLogColumns = `id, webhook_id, source, event_type, payload, dedupe_key, processed_at, processing_error, created_at`

func (s *eventLogStore) CreateOrGet(ctx context.Context, log *model.EventLog) (*model.EventLog, bool, error) {
	// ON CONFLICT DO UPDATE with a no-op set so the existing row comes back;
	// created is detected by comparing the returned id with the one we sent.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO event_logs (id, webhook_id, source, event_type, payload, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (dedupe_key) DO UPDATE SET dedupe_key = EXCLUDED.dedupe_key
		RETURNING `+eventLogColumns,
		log.ID, log.WebhookID, log.Source, log.EventType, []byte(log.Payload), log.DedupeKey)

	stored, err := scanEventLog(row)
	if err != nil {
		return nil, false, err
	}
	created := stored.ID == log.ID
	return stored, created, nil
}

func (s *eventLogStore) GetByID(ctx context.Context, id int64) (*model.EventLog, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+eventLogColumns+`
		FROM event_logs
		WHERE id = $1`, id)

	stored, err := scanEventLog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stored, nil
}

func (s *eventLogStore) MarkProcessed(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE event_logs
		SET processed_at = now(), processing_error = NULL
		WHERE id = $1`, id)
	return err
}

func (s *eventLogStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE event_logs
		SET processed_at = now(), processing_error = $2
		WHERE id = $1`, id, errMsg)
	return err
}

func scanEventLog(row pgx.Row) (*model.EventLog, error) {
	var log model.EventLog
	var payload []byte
	err := row.Scan(
		&log.ID,
		&log.WebhookID,
		&log.Source,
		&log.EventType,
		&payload,
		&log.DedupeKey,
		&log.ProcessedAt,
		&log.ProcessingError,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	log.Payload = payload
	return &log, nil
}
