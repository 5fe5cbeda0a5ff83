package memory

import (
	"context"
	"sort"
	"sync"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunRecord // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.RunRecord),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyRun(r)
	return nil
}

// GetByID retrieves a run by its ID.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyRun(r), nil
}

// GetBySymbol retrieves all runs for a symbol, ordered by run_id ASC.
func (s *RunStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RunRecord
	for _, r := range s.data {
		if r.Symbol == symbol {
			result = append(result, copyRun(r))
		}
	}
	sortRuns(result)
	return result, nil
}

// GetAll retrieves all runs, ordered by run_id ASC.
func (s *RunStore) GetAll(_ context.Context) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RunRecord, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyRun(r))
	}
	sortRuns(result)
	return result, nil
}

func sortRuns(runs []*domain.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].RunID < runs[j].RunID
	})
}

// copyRun deep-copies slices so callers cannot mutate stored state.
func copyRun(r *domain.RunRecord) *domain.RunRecord {
	c := *r
	c.Config.DistanceToLeverage = append([]domain.LeverageTier(nil), r.Config.DistanceToLeverage...)
	c.BalanceHistory = append([]float64(nil), r.BalanceHistory...)
	c.BenchmarkHistory = append([]float64(nil), r.BenchmarkHistory...)
	c.Trades = append([]domain.Trade(nil), r.Trades...)
	return &c
}

var _ storage.RunStore = (*RunStore)(nil)
