package store

import "github.com/jackc/pgx/v5/pgxpool"

// Stores hands out typed store implementations over one shared pool.
type Stores struct {
	pool *pgxpool.Pool
}

func NewStores(pool *pgxpool.Pool) *Stores {
	return &Stores{pool: pool}
}

func (s *Stores) EventLogs() EventLogStore {
	return newEventLogStore(s.pool)
}

func (s *Stores) Dispatches() DispatchStore {
	return newDispatchStore(s.pool)
}
