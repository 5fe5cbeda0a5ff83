package reporting

import (
	"fmt"
	"strings"

	"breakout-lab/internal/eventlog"
)

// RenderSeriesCSV renders the per-day balance and benchmark series.
func RenderSeriesCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("day,balance,benchmark\n")
	for _, row := range r.Series {
		sb.WriteString(fmt.Sprintf("%d,%s,%s\n", row.Day, fixed(row.Balance, 6), fixed(row.Benchmark, 6)))
	}

	return sb.String()
}

// RenderTradesCSV renders the trade journal.
func RenderTradesCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("entry_day,exit_day,side,entry_price,exit_price,stop_price,leverage,")
	sb.WriteString("raw_return,net_return,balance,exit_reason\n")

	for _, t := range r.Trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			t.EntryDay.Format(eventlog.DayLayout),
			t.ExitDay.Format(eventlog.DayLayout),
			t.Side,
			fixed(t.EntryPrice, 8),
			fixed(t.ExitPrice, 8),
			fixed(t.StopPrice, 8),
			fixed(t.Leverage, 4),
			fixed(t.RawReturn, 6),
			fixed(t.NetReturn, 6),
			fixed(t.Balance, 6),
			t.ExitReason,
		))
	}

	return sb.String()
}

// RenderRunsCSV renders a cross-run comparison.
func RenderRunsCSV(rows []RunComparisonRow) string {
	var sb strings.Builder

	sb.WriteString("run_id,symbol,long_k,short_k,stoploss,days,trade_count,win_rate,")
	sb.WriteString("total_return,annualized_return,max_drawdown,sharpe,benchmark_total_return\n")

	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%d,%d,%s,%s,%s,%s,%s,%s\n",
			row.RunID,
			row.Symbol,
			fixed(row.LongK, 6),
			fixed(row.ShortK, 6),
			fixed(row.StopLoss, 6),
			row.Days,
			row.TradeCount,
			fixed(row.WinRate, 6),
			fixed(row.TotalReturn, 6),
			fixed(row.AnnualizedReturn, 6),
			fixed(row.MaxDrawdown, 6),
			fixed(row.Sharpe, 6),
			fixed(row.BenchmarkTotalReturn, 6),
		))
	}

	return sb.String()
}
