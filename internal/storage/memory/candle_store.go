package memory

import (
	"context"
	"sort"
	"sync"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/storage"
)

// seriesKey identifies a candle series.
type seriesKey struct {
	symbol   string
	interval string
}

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[seriesKey]map[int64]domain.Candle // keyed by series, then timestamp_ms
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[seriesKey]map[int64]domain.Candle),
	}
}

// InsertBulk adds candles to a series. Fails entire batch on duplicate.
func (s *CandleStore) InsertBulk(_ context.Context, symbol, interval string, candles []domain.Candle) error {
	if symbol == "" || interval == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := seriesKey{symbol, interval}
	series := s.data[key]

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[int64]struct{}, len(candles))

	// First pass: check for duplicates (existing + intra-batch)
	for _, c := range candles {
		if _, exists := series[c.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[c.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[c.TimestampMs] = struct{}{}
	}

	// Second pass: insert all
	if series == nil {
		series = make(map[int64]domain.Candle, len(candles))
		s.data[key] = series
	}
	for _, c := range candles {
		series[c.TimestampMs] = c
	}

	return nil
}

// GetBySymbol retrieves the whole series, ordered by timestamp ASC.
func (s *CandleStore) GetBySymbol(_ context.Context, symbol, interval string) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(symbol, interval, func(int64) bool { return true }), nil
}

// GetByTimeRange retrieves candles within [start, end] (inclusive).
func (s *CandleStore) GetByTimeRange(_ context.Context, symbol, interval string, start, end int64) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(symbol, interval, func(ts int64) bool { return ts >= start && ts <= end }), nil
}

// GetTimeRange returns min and max timestamps of the series.
func (s *CandleStore) GetTimeRange(_ context.Context, symbol, interval string) (minTs, maxTs int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.data[seriesKey{symbol, interval}]
	if len(series) == 0 {
		return 0, 0, storage.ErrNotFound
	}

	first := true
	for ts := range series {
		if first {
			minTs, maxTs = ts, ts
			first = false
			continue
		}
		if ts < minTs {
			minTs = ts
		}
		if ts > maxTs {
			maxTs = ts
		}
	}
	return minTs, maxTs, nil
}

// collect copies matching candles out of a series in timestamp order.
// Caller must hold the read lock.
func (s *CandleStore) collect(symbol, interval string, keep func(int64) bool) []domain.Candle {
	var result []domain.Candle
	for ts, c := range s.data[seriesKey{symbol, interval}] {
		if keep(ts) {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result
}

var _ storage.CandleStore = (*CandleStore)(nil)
