// Package feed loads ordered minute candles from files, exchanges and stores.
package feed

import (
	"context"
	"errors"

	"breakout-lab/internal/domain"
)

// ErrMalformedRow is returned when a CSV row or kline cannot be parsed.
var ErrMalformedRow = errors.New("malformed candle row")

// Source produces a candle feed ordered by timestamp.
type Source interface {
	// Name labels the source in logs and metrics.
	Name() string

	// Load returns the full feed.
	Load(ctx context.Context) ([]domain.Candle, error)
}

// Slice is an in-memory Source.
type Slice []domain.Candle

// Name returns "memory".
func (Slice) Name() string { return "memory" }

// Load returns a copy of the slice.
func (s Slice) Load(context.Context) ([]domain.Candle, error) {
	return append([]domain.Candle(nil), s...), nil
}
