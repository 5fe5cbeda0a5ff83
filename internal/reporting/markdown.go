package reporting

import (
	"fmt"
	"strings"
	"time"

	"breakout-lab/internal/eventlog"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Backtest Report: %s\n\n", r.Run.Symbol))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", r.Run.RunID))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| First Candle | %s |\n", r.Run.FirstCandle.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Last Candle | %s |\n", r.Run.LastCandle.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Candles | %d |\n", r.Run.CandleCount))
	sb.WriteString(fmt.Sprintf("| Completed Days | %d |\n", r.Run.Days))
	sb.WriteString(fmt.Sprintf("| Initial Balance | %s |\n", amount(r.Run.InitialValue)))
	sb.WriteString("\n")

	// Parameters
	c := r.Config
	sb.WriteString("## Parameters\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Long K | %s |\n", fixed(c.LongK, 4)))
	sb.WriteString(fmt.Sprintf("| Short K | %s |\n", fixed(c.ShortK, 4)))
	sb.WriteString(fmt.Sprintf("| Stop Loss | %s |\n", pct(c.StopLoss)))
	sb.WriteString(fmt.Sprintf("| Leverage | %s |\n", fixed(c.Leverage, 2)))
	sb.WriteString(fmt.Sprintf("| Fee / Slippage | %s / %s |\n", pct(c.FeeFraction), pct(c.SlippageFraction)))
	sb.WriteString(fmt.Sprintf("| Shorting | %t |\n", c.EnableShorting))
	sb.WriteString(fmt.Sprintf("| MA Filter | %t (%d days) |\n", c.EnableMA, c.MAWindowDays))
	sb.WriteString(fmt.Sprintf("| Trade Every Day | %t |\n", c.TradeEveryDay))
	if len(c.DistanceToLeverage) > 0 {
		tiers := make([]string, len(c.DistanceToLeverage))
		for i, t := range c.DistanceToLeverage {
			tiers[i] = fmt.Sprintf("%s→%sx", pct(t.Threshold), fixed(t.Leverage, 2))
		}
		sb.WriteString(fmt.Sprintf("| Distance Leverage | %s |\n", strings.Join(tiers, ", ")))
	}
	sb.WriteString("\n")

	// Performance
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Series | Final | Total | Annualized | Geometric | MaxDD | Volatility | Sharpe |\n")
	sb.WriteString("|--------|-------|-------|------------|-----------|-------|------------|--------|\n")
	sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s |\n",
		r.Strategy.Label, amount(r.Strategy.FinalValue), pct(r.Strategy.TotalReturn),
		pct(r.Strategy.AnnualizedReturn), pct(r.Strategy.GeometricAnnualized),
		pct(r.Strategy.MaxDrawdown), pct(r.Strategy.Volatility), fixed(r.Strategy.Sharpe, 2)))
	sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | - | - |\n",
		r.Benchmark.Label, amount(r.Benchmark.FinalValue), pct(r.Benchmark.TotalReturn),
		pct(r.Benchmark.AnnualizedReturn), pct(r.Benchmark.GeometricAnnualized),
		pct(r.Benchmark.MaxDrawdown)))
	sb.WriteString("\n")

	// Trades
	sb.WriteString("## Trades\n\n")
	if r.HasTradeAgg {
		t := r.TradeStats
		sb.WriteString("| Trades | Long | Short | WinRate | Mean | Median | P10 | P90 | StopLoss | Rollover | MaxLossStreak |\n")
		sb.WriteString("|--------|------|-------|---------|------|--------|-----|-----|----------|----------|---------------|\n")
		sb.WriteString(fmt.Sprintf("| %d | %d | %d | %s | %s | %s | %s | %s | %d | %d | %d |\n",
			t.TotalTrades, t.LongTrades, t.ShortTrades, pct(t.WinRate),
			pct(t.OutcomeMean), pct(t.OutcomeMedian), pct(t.OutcomeP10), pct(t.OutcomeP90),
			t.StopLossExits, t.RolloverExits, t.MaxConsecutiveLosses))
	} else {
		sb.WriteString("No closed trades.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderComparisonMarkdown renders a cross-run comparison table.
func RenderComparisonMarkdown(rows []RunComparisonRow) string {
	var sb strings.Builder

	sb.WriteString("# Run Comparison\n\n")
	if len(rows) == 0 {
		sb.WriteString("No runs available.\n")
		return sb.String()
	}

	sb.WriteString("| Run | Symbol | LongK | ShortK | StopLoss | Days | Trades | WinRate | Total | Annualized | MaxDD | Sharpe | Buy&Hold |\n")
	sb.WriteString("|-----|--------|-------|--------|----------|------|--------|---------|-------|------------|-------|--------|----------|\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %d | %d | %s | %s | %s | %s | %s | %s |\n",
			shortID(row.RunID), row.Symbol, fixed(row.LongK, 4), fixed(row.ShortK, 4), pct(row.StopLoss),
			row.Days, row.TradeCount, pct(row.WinRate), pct(row.TotalReturn),
			pct(row.AnnualizedReturn), pct(row.MaxDrawdown), fixed(row.Sharpe, 2),
			pct(row.BenchmarkTotalReturn)))
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderTradesMarkdown renders the trade journal.
func RenderTradesMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("## Trade Journal\n\n")
	if len(r.Trades) == 0 {
		sb.WriteString("No closed trades.\n")
		return sb.String()
	}

	sb.WriteString("| Entry Day | Exit Day | Side | Entry | Exit | Leverage | Net | Reason |\n")
	sb.WriteString("|-----------|----------|------|-------|------|----------|-----|--------|\n")
	for _, t := range r.Trades {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			t.EntryDay.Format(eventlog.DayLayout), t.ExitDay.Format(eventlog.DayLayout), t.Side,
			amount(t.EntryPrice), amount(t.ExitPrice), fixed(t.Leverage, 2),
			pct(t.NetReturn), t.ExitReason))
	}
	sb.WriteString("\n")

	return sb.String()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
