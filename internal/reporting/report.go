// Package reporting renders simulation runs as text, Markdown and CSV.
package reporting

import (
	"time"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/metrics"
)

// Report is the rendered view of one simulation run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Run         RunSummary
	Config      domain.StrategyConfig

	// Performance of the strategy next to buy-and-hold
	Strategy  PerformanceRow
	Benchmark PerformanceRow

	// Trade journal
	Trades      []domain.Trade
	TradeStats  metrics.TradeAggregate
	HasTradeAgg bool // false when the run closed no trades

	// Per-day series (index-aligned)
	Series []SeriesRow
}

// RunSummary describes the feed a run covered.
type RunSummary struct {
	RunID        string
	Symbol       string
	FirstCandle  time.Time
	LastCandle   time.Time
	CandleCount  int
	Days         int
	InitialValue float64
}

// PerformanceRow is one line of the performance table.
type PerformanceRow struct {
	Label               string
	FinalValue          float64
	TotalReturn         float64
	AnnualizedReturn    float64
	GeometricAnnualized float64
	MaxDrawdown         float64
	Volatility          float64 // strategy only
	Sharpe              float64 // strategy only
}

// SeriesRow is one completed day.
type SeriesRow struct {
	Day       int
	Balance   float64
	Benchmark float64
}

// RunComparisonRow is one run in a cross-run comparison.
type RunComparisonRow struct {
	RunID                string
	Symbol               string
	LongK                float64
	ShortK               float64
	StopLoss             float64
	Days                 int
	TradeCount           int
	WinRate              float64
	TotalReturn          float64
	AnnualizedReturn     float64
	MaxDrawdown          float64
	Sharpe               float64
	BenchmarkTotalReturn float64
}
