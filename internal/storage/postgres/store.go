package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammpool/internal/model"
)

// Store provides Postgres persistence for the pool event journal.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertEvents appends pool events to the journal table.
func (s *Store) InsertEvents(ctx context.Context, events []model.PoolEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(`
			INSERT INTO pool_events (
				event_type, asset, asset_b, account, amount, amount_b, request_id, error, occurred_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		`,
			event.Type,
			event.Asset,
			event.AssetB,
			event.Account,
			event.Amount,
			event.AmountB,
			event.RequestID,
			event.Error,
			event.OccurredAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Journal adapts the store to the storage.Storage sink interface.
type Journal struct {
	store *Store
	ctx   context.Context
}

// NewJournal wraps the store with a base context for journal writes.
func NewJournal(ctx context.Context, store *Store) *Journal {
	return &Journal{store: store, ctx: ctx}
}

func (j *Journal) PutEventBatch(events []model.PoolEvent) error {
	return j.store.InsertEvents(j.ctx, events)
}
