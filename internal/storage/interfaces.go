package storage

import (
	"context"

	"breakout-lab/internal/domain"
)

// CandleStore provides access to candles storage.
// A series is identified by (symbol, interval); candles within a series are
// unique by timestamp.
type CandleStore interface {
	// InsertBulk adds candles to a series. Fails entire batch on any duplicate timestamp.
	InsertBulk(ctx context.Context, symbol, interval string, candles []domain.Candle) error

	// GetBySymbol retrieves the whole series, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol, interval string) ([]domain.Candle, error)

	// GetByTimeRange retrieves candles within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, symbol, interval string, start, end int64) ([]domain.Candle, error)

	// GetTimeRange returns the first and last timestamps of the series.
	// Returns ErrNotFound if the series is empty.
	GetTimeRange(ctx context.Context, symbol, interval string) (minTs, maxTs int64, err error)
}

// RunStore provides access to backtest_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetBySymbol retrieves all runs for a symbol, ordered by run_id ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.RunRecord, error)

	// GetAll retrieves all runs, ordered by run_id ASC.
	GetAll(ctx context.Context) ([]*domain.RunRecord, error)
}
