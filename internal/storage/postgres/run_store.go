package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, symbol, config, first_candle_ms, last_candle_ms, candle_count,
	days, trade_count, win_rate,
	total_return, annualized_return, geometric_annualized,
	max_drawdown, volatility, sharpe,
	benchmark_total_return, benchmark_annualized_return, benchmark_max_drawdown,
	final_balance, balance_history, benchmark_history
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("marshal run config: %w", err)
	}

	query := `
		INSERT INTO backtest_runs (` + runColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12,
			$13, $14, $15,
			$16, $17, $18,
			$19, $20, $21
		)
	`

	st := r.Stats
	_, err = s.pool.Exec(ctx, query,
		r.RunID, r.Symbol, cfg, r.FirstCandleMs, r.LastCandleMs, r.CandleCount,
		st.Days, st.TradeCount, st.WinRate,
		st.TotalReturn, st.AnnualizedReturn, st.GeometricAnnualized,
		st.MaxDrawdown, st.Volatility, st.Sharpe,
		st.BenchmarkTotalReturn, st.BenchmarkAnnualizedReturn, st.BenchmarkMaxDrawdown,
		r.FinalBalance, nonNil(r.BalanceHistory), nonNil(r.BenchmarkHistory),
	)
	if err != nil {
		return storeError("insert run", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE run_id = $1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		return nil, storeError("get run by id", err)
	}
	return r, nil
}

// GetBySymbol retrieves all runs for a symbol, ordered by run_id ASC.
func (s *RunStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE symbol = $1 ORDER BY run_id ASC`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get runs by symbol: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetAll retrieves all runs, ordered by run_id ASC.
func (s *RunStore) GetAll(ctx context.Context) ([]*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs ORDER BY run_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var (
		r   domain.RunRecord
		cfg []byte
	)
	st := &r.Stats
	err := row.Scan(
		&r.RunID, &r.Symbol, &cfg, &r.FirstCandleMs, &r.LastCandleMs, &r.CandleCount,
		&st.Days, &st.TradeCount, &st.WinRate,
		&st.TotalReturn, &st.AnnualizedReturn, &st.GeometricAnnualized,
		&st.MaxDrawdown, &st.Volatility, &st.Sharpe,
		&st.BenchmarkTotalReturn, &st.BenchmarkAnnualizedReturn, &st.BenchmarkMaxDrawdown,
		&r.FinalBalance, &r.BalanceHistory, &r.BenchmarkHistory,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfg, &r.Config); err != nil {
		return nil, fmt.Errorf("unmarshal run config: %w", err)
	}
	return &r, nil
}

func scanRuns(rows pgx.Rows) ([]*domain.RunRecord, error) {
	var result []*domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}

// nonNil keeps NOT NULL array columns valid for runs without completed days.
func nonNil(s []float64) []float64 {
	if s == nil {
		return []float64{}
	}
	return s
}
