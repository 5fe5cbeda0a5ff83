package reporting

import (
	"context"
	"sort"
	"time"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/metrics"
	"breakout-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	runStore storage.RunStore
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runStore storage.RunStore) *Generator {
	return &Generator{
		runStore: runStore,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report of a stored run.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	record, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, err // propagates storage.ErrNotFound
	}
	return Build(record, g.now()), nil
}

// Compare loads stored runs, all of them when symbol is empty, and returns
// comparison rows ordered by total return DESC, then run_id ASC.
func (g *Generator) Compare(ctx context.Context, symbol string) ([]RunComparisonRow, error) {
	var (
		records []*domain.RunRecord
		err     error
	)
	if symbol == "" {
		records, err = g.runStore.GetAll(ctx)
	} else {
		records, err = g.runStore.GetBySymbol(ctx, symbol)
	}
	if err != nil {
		return nil, err
	}
	return CompareRuns(records), nil
}

// Build turns a run record into a report.
func Build(record *domain.RunRecord, generatedAt time.Time) *Report {
	st := record.Stats

	r := &Report{
		GeneratedAt: generatedAt,
		Run: RunSummary{
			RunID:        record.RunID,
			Symbol:       record.Symbol,
			FirstCandle:  time.UnixMilli(record.FirstCandleMs).UTC(),
			LastCandle:   time.UnixMilli(record.LastCandleMs).UTC(),
			CandleCount:  record.CandleCount,
			Days:         st.Days,
			InitialValue: record.Config.InitialBalance,
		},
		Config: record.Config,
		Strategy: PerformanceRow{
			Label:               "Strategy",
			FinalValue:          record.FinalBalance,
			TotalReturn:         st.TotalReturn,
			AnnualizedReturn:    st.AnnualizedReturn,
			GeometricAnnualized: st.GeometricAnnualized,
			MaxDrawdown:         st.MaxDrawdown,
			Volatility:          st.Volatility,
			Sharpe:              st.Sharpe,
		},
		Benchmark: PerformanceRow{
			Label:            "Buy & Hold",
			FinalValue:       last(record.BenchmarkHistory),
			TotalReturn:      st.BenchmarkTotalReturn,
			AnnualizedReturn: st.BenchmarkAnnualizedReturn,
			GeometricAnnualized: metrics.GeometricAnnualized(
				st.BenchmarkTotalReturn, len(record.BenchmarkHistory)-1),
			MaxDrawdown: st.BenchmarkMaxDrawdown,
		},
		Trades: record.Trades,
	}

	// ErrNoTrades is the only failure and leaves the aggregate unset.
	if agg, err := metrics.AggregateTrades(record.Trades); err == nil {
		r.TradeStats = agg
		r.HasTradeAgg = true
	}

	r.Series = make([]SeriesRow, len(record.BalanceHistory))
	for i, b := range record.BalanceHistory {
		row := SeriesRow{Day: i + 1, Balance: b}
		if i < len(record.BenchmarkHistory) {
			row.Benchmark = record.BenchmarkHistory[i]
		}
		r.Series[i] = row
	}

	return r
}

// CompareRuns builds comparison rows ordered by total return DESC, then
// run_id ASC.
func CompareRuns(records []*domain.RunRecord) []RunComparisonRow {
	rows := make([]RunComparisonRow, len(records))
	for i, rec := range records {
		rows[i] = RunComparisonRow{
			RunID:                rec.RunID,
			Symbol:               rec.Symbol,
			LongK:                rec.Config.LongK,
			ShortK:               rec.Config.ShortK,
			StopLoss:             rec.Config.StopLoss,
			Days:                 rec.Stats.Days,
			TradeCount:           rec.Stats.TradeCount,
			WinRate:              rec.Stats.WinRate,
			TotalReturn:          rec.Stats.TotalReturn,
			AnnualizedReturn:     rec.Stats.AnnualizedReturn,
			MaxDrawdown:          rec.Stats.MaxDrawdown,
			Sharpe:               rec.Stats.Sharpe,
			BenchmarkTotalReturn: rec.Stats.BenchmarkTotalReturn,
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalReturn != rows[j].TotalReturn {
			return rows[i].TotalReturn > rows[j].TotalReturn
		}
		return rows[i].RunID < rows[j].RunID
	})
	return rows
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
