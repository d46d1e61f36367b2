package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/switchyardhq/switchyard/internal/model"
)

type dispatchStore struct {
	pool *pgxpool.Pool
}

func newDispatchStore(pool *pgxpool.Pool) DispatchStore {
	return &dispatchStore{pool: pool}
}

const dispatchColumns = `id, event_log_id, webhook_id, category, handler, success, error,
	confidence, tier, escalated, cost, processing_time_ms, classification, routing, created_at`

func (s *dispatchStore) Create(ctx context.Context, rec *model.DispatchRecord) (*model.DispatchRecord, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO dispatch_records
			(id, event_log_id, webhook_id, category, handler, success, error,
			 confidence, tier, escalated, cost, processing_time_ms, classification, routing)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+dispatchColumns,
		rec.ID, rec.EventLogID, rec.WebhookID, rec.Category, rec.Handler,
		rec.Success, rec.Error, rec.Confidence, rec.Tier, rec.Escalated,
		rec.Cost, rec.ProcessingTimeMs, []byte(rec.Classification), []byte(rec.Routing))

	return scanDispatchRecord(row)
}

func (s *dispatchStore) ListByEventLog(ctx context.Context, eventLogID int64) ([]model.DispatchRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+dispatchColumns+`
		FROM dispatch_records
		WHERE event_log_id = $1
		ORDER BY created_at`, eventLogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.DispatchRecord
	for rows.Next() {
		rec, err := scanDispatchRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanDispatchRecord(row pgx.Row) (*model.DispatchRecord, error) {
	var rec model.DispatchRecord
	var classification, routing []byte
	err := row.Scan(
		&rec.ID,
		&rec.EventLogID,
		&rec.WebhookID,
		&rec.Category,
		&rec.Handler,
		&rec.Success,
		&rec.Error,
		&rec.Confidence,
		&rec.Tier,
		&rec.Escalated,
		&rec.Cost,
		&rec.ProcessingTimeMs,
		&classification,
		&routing,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Classification = classification
	rec.Routing = routing
	return &rec, nil
}
