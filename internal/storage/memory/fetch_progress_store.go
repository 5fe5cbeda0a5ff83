package memory

import (
	"context"
	"sync"

	"breakout-lab/internal/storage"
)

// FetchProgressStore is an in-memory implementation of storage.FetchProgressStore.
type FetchProgressStore struct {
	mu       sync.RWMutex
	progress map[seriesKey]int64
}

// NewFetchProgressStore creates a new in-memory fetch progress store.
func NewFetchProgressStore() *FetchProgressStore {
	return &FetchProgressStore{
		progress: make(map[seriesKey]int64),
	}
}

// GetLastFetched returns the cursor of a series.
func (s *FetchProgressStore) GetLastFetched(_ context.Context, symbol, interval string) (*storage.FetchProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, ok := s.progress[seriesKey{symbol, interval}]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return &storage.FetchProgress{
		Symbol:      symbol,
		Interval:    interval,
		LastFetched: ts,
	}, nil
}

// SetLastFetched saves the cursor of a series.
func (s *FetchProgressStore) SetLastFetched(_ context.Context, progress *storage.FetchProgress) error {
	if progress == nil || progress.Symbol == "" || progress.Interval == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.progress[seriesKey{progress.Symbol, progress.Interval}] = progress.LastFetched
	return nil
}

var _ storage.FetchProgressStore = (*FetchProgressStore)(nil)
