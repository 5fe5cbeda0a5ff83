package storage

import "context"

// FetchProgress is the download cursor of one candle series.
type FetchProgress struct {
	Symbol      string
	Interval    string
	LastFetched int64 // open time of the last stored candle, Unix ms
}

// FetchProgressStore provides persistence for download state.
// This enables resuming a historical download without refetching or
// duplicating candles.
type FetchProgressStore interface {
	// GetLastFetched returns the cursor of a series.
	// Returns ErrNotFound if no progress has been saved yet.
	GetLastFetched(ctx context.Context, symbol, interval string) (*FetchProgress, error)

	// SetLastFetched saves the cursor of a series.
	SetLastFetched(ctx context.Context, progress *FetchProgress) error
}
