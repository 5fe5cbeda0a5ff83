package ledger

import (
	"breakout-lab/internal/domain"
	"breakout-lab/internal/metrics"
)

// Summarize computes the risk/return statistics of an account.
// Strategy and benchmark series go through the same formulas.
// Series shorter than 2 yield zero returns and drawdowns.
func Summarize(acct *domain.Account) domain.Stats {
	if acct == nil {
		return domain.Stats{}
	}

	returns := metrics.StepReturns(acct.BalanceHistory)
	benchReturns := metrics.StepReturns(acct.BenchmarkHistory)
	total := metrics.TotalReturn(acct.BalanceHistory)

	wins := 0
	for _, t := range acct.Trades {
		if t.NetReturn > 0 {
			wins++
		}
	}

	return domain.Stats{
		Days:       len(acct.BenchmarkHistory),
		TradeCount: acct.TradeCount,
		WinRate:    metrics.WinRate(wins, len(acct.Trades)),

		TotalReturn:         total,
		AnnualizedReturn:    metrics.AnnualizedReturn(returns),
		GeometricAnnualized: metrics.GeometricAnnualized(total, len(acct.BalanceHistory)-1),
		MaxDrawdown:         metrics.MaxDrawdown(returns),
		Volatility:          metrics.Stddev(returns),
		Sharpe:              metrics.Sharpe(returns),

		BenchmarkTotalReturn:      metrics.TotalReturn(acct.BenchmarkHistory),
		BenchmarkAnnualizedReturn: metrics.AnnualizedReturn(benchReturns),
		BenchmarkMaxDrawdown:      metrics.MaxDrawdown(benchReturns),
	}
}
