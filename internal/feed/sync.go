package feed

import (
	"context"
	"errors"
	"fmt"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/storage"
)

// Sync downloads b into store page by page and reports the number of new
// candles. The download resumes after the last stored candle: from the
// progress cursor when progress is set, otherwise from the series' latest
// timestamp. b.Start is a lower bound only.
func Sync(ctx context.Context, b Binance, store storage.CandleStore, progress storage.FetchProgressStore) (int, error) {
	interval := intervalOrDefault(b.Interval)
	b.Interval = interval

	resume, err := resumePoint(ctx, b.Symbol, interval, store, progress)
	if err != nil {
		return 0, err
	}
	if resume > b.Start {
		b.Start = resume
	}

	total := 0
	err = b.Each(ctx, func(page []domain.Candle) error {
		if err := store.InsertBulk(ctx, b.Symbol, interval, page); err != nil {
			return fmt.Errorf("store candles: %w", err)
		}
		total += len(page)

		if progress != nil {
			cursor := &storage.FetchProgress{
				Symbol:      b.Symbol,
				Interval:    interval,
				LastFetched: page[len(page)-1].TimestampMs,
			}
			if err := progress.SetLastFetched(ctx, cursor); err != nil {
				return fmt.Errorf("save fetch progress: %w", err)
			}
		}
		return nil
	})
	return total, err
}

// resumePoint returns the first open time not yet stored, or 0.
func resumePoint(ctx context.Context, symbol, interval string, store storage.CandleStore, progress storage.FetchProgressStore) (int64, error) {
	if progress != nil {
		p, err := progress.GetLastFetched(ctx, symbol, interval)
		switch {
		case err == nil:
			return p.LastFetched + 1, nil
		case !errors.Is(err, storage.ErrNotFound):
			return 0, fmt.Errorf("load fetch progress: %w", err)
		}
	}

	_, maxTs, err := store.GetTimeRange(ctx, symbol, interval)
	switch {
	case err == nil:
		return maxTs + 1, nil
	case errors.Is(err, storage.ErrNotFound):
		return 0, nil
	default:
		return 0, fmt.Errorf("load stored range: %w", err)
	}
}
