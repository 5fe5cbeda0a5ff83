package feed

import (
	"context"
	"errors"
	"fmt"
	"math"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/storage"
)

// Store reads a candle series from a storage.CandleStore.
type Store struct {
	Store    storage.CandleStore
	Symbol   string
	Interval string // defaults to 1m
	From     int64  // inclusive, Unix ms; 0 means from the start
	To       int64  // inclusive, Unix ms; 0 means to the end
}

// Name returns "store".
func (Store) Name() string { return "store" }

// Load reads the series.
func (s Store) Load(ctx context.Context) ([]domain.Candle, error) {
	interval := intervalOrDefault(s.Interval)
	if s.From == 0 && s.To == 0 {
		return s.Store.GetBySymbol(ctx, s.Symbol, interval)
	}
	to := s.To
	if to == 0 {
		to = math.MaxInt64
	}
	return s.Store.GetByTimeRange(ctx, s.Symbol, interval, s.From, to)
}

// Cached is a read-through cache: an empty series is loaded from Upstream
// and persisted before being returned.
type Cached struct {
	Store    storage.CandleStore
	Upstream Source
	Symbol   string
	Interval string // defaults to 1m
}

// Name reports the upstream it falls back to.
func (c Cached) Name() string { return "cached-" + c.Upstream.Name() }

// Load returns the stored series, filling the store first when it is empty.
func (c Cached) Load(ctx context.Context) ([]domain.Candle, error) {
	interval := intervalOrDefault(c.Interval)

	_, _, err := c.Store.GetTimeRange(ctx, c.Symbol, interval)
	if err == nil {
		return c.Store.GetBySymbol(ctx, c.Symbol, interval)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("check candle cache: %w", err)
	}

	candles, err := c.Upstream.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return candles, nil
	}
	if err := c.Store.InsertBulk(ctx, c.Symbol, interval, candles); err != nil {
		return nil, fmt.Errorf("fill candle cache: %w", err)
	}
	return candles, nil
}

func intervalOrDefault(interval string) string {
	if interval == "" {
		return DefaultInterval
	}
	return interval
}
