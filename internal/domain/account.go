package domain

// Account holds the balance and per-day histories of one run.
// BalanceHistory and BenchmarkHistory receive one append per completed day
// and stay index-aligned.
type Account struct {
	InitialBalance   float64
	Balance          float64
	BalanceHistory   []float64 // balance at each day rollover
	BenchmarkHistory []float64 // buy-and-hold close of each completed day
	TradeCount       int
	Trades           []Trade
}

// Clone returns a deep copy.
func (a Account) Clone() Account {
	out := a
	out.BalanceHistory = append([]float64(nil), a.BalanceHistory...)
	out.BenchmarkHistory = append([]float64(nil), a.BenchmarkHistory...)
	out.Trades = append([]Trade(nil), a.Trades...)
	return out
}

// Stats summarizes the risk/return profile of a run.
type Stats struct {
	Days       int // completed days
	TradeCount int
	WinRate    float64 // closed trades with positive net return / closed trades

	// Strategy
	TotalReturn         float64
	AnnualizedReturn    float64 // (1 + mean daily return)^365 - 1
	GeometricAnnualized float64 // (1 + total return)^(365/days) - 1
	MaxDrawdown         float64 // negative fraction
	Volatility          float64 // sample stddev of daily returns
	Sharpe              float64 // mean / stddev * sqrt(365)

	// Buy-and-hold benchmark
	BenchmarkTotalReturn      float64
	BenchmarkAnnualizedReturn float64
	BenchmarkMaxDrawdown      float64
}

// RunRecord is a persisted simulation run.
// Corresponds to backtest_runs table in PostgreSQL.
type RunRecord struct {
	RunID         string // deterministic hash of inputs
	Symbol        string
	Config        StrategyConfig
	FirstCandleMs int64
	LastCandleMs  int64
	CandleCount   int

	Stats            Stats
	FinalBalance     float64
	BalanceHistory   []float64
	BenchmarkHistory []float64

	// Trades is the closing journal of the run. Not persisted.
	Trades []Trade
}
