package postgres

import (
	"context"

	"breakout-lab/internal/storage"
)

// FetchProgressStore is a PostgreSQL implementation of storage.FetchProgressStore.
// One row per (symbol, timeframe) series in fetch_progress.
type FetchProgressStore struct {
	pool *Pool
}

// NewFetchProgressStore creates a new PostgreSQL fetch progress store.
func NewFetchProgressStore(pool *Pool) *FetchProgressStore {
	return &FetchProgressStore{pool: pool}
}

var _ storage.FetchProgressStore = (*FetchProgressStore)(nil)

// GetLastFetched returns the download cursor of a series.
func (s *FetchProgressStore) GetLastFetched(ctx context.Context, symbol, interval string) (*storage.FetchProgress, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT symbol, timeframe, last_fetched
		FROM fetch_progress
		WHERE symbol = $1 AND timeframe = $2
	`, symbol, interval)

	var progress storage.FetchProgress
	err := row.Scan(&progress.Symbol, &progress.Interval, &progress.LastFetched)
	if err != nil {
		return nil, storeError("get fetch progress", err)
	}

	return &progress, nil
}

// SetLastFetched saves the download cursor of a series.
// Uses upsert to handle initial insert and subsequent updates.
func (s *FetchProgressStore) SetLastFetched(ctx context.Context, progress *storage.FetchProgress) error {
	if progress == nil || progress.Symbol == "" || progress.Interval == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO fetch_progress (symbol, timeframe, last_fetched, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (symbol, timeframe) DO UPDATE
		SET last_fetched = EXCLUDED.last_fetched,
		    updated_at = NOW()
	`, progress.Symbol, progress.Interval, progress.LastFetched)

	return storeError("set fetch progress", err)
}
