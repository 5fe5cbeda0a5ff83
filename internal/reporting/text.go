package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderText renders a report for the terminal.
func RenderText(r *Report) string {
	var sb strings.Builder

	sb.WriteString("\n=== Backtest Result ===\n")
	fmt.Fprintf(&sb, "Run ID:             %s\n", r.Run.RunID)
	fmt.Fprintf(&sb, "Symbol:             %s\n", r.Run.Symbol)
	fmt.Fprintf(&sb, "Period:             %s .. %s\n", r.Run.FirstCandle.Format(time.RFC3339), r.Run.LastCandle.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Candles:            %d\n", r.Run.CandleCount)
	fmt.Fprintf(&sb, "Completed Days:     %d\n", r.Run.Days)
	sb.WriteString("\n")

	c := r.Config
	sb.WriteString("Parameters:\n")
	fmt.Fprintf(&sb, "  K (long/short):   %s / %s\n", fixed(c.LongK, 4), fixed(c.ShortK, 4))
	fmt.Fprintf(&sb, "  Stop Loss:        %s\n", pct(c.StopLoss))
	fmt.Fprintf(&sb, "  Leverage:         %s\n", fixed(c.Leverage, 2))
	fmt.Fprintf(&sb, "  Round-trip Cost:  %s\n", pct(c.RoundTripCost()))
	fmt.Fprintf(&sb, "  Shorting:         %t\n", c.EnableShorting)
	if c.EnableMA {
		fmt.Fprintf(&sb, "  MA Filter:        %d days\n", c.MAWindowDays)
	} else {
		sb.WriteString("  MA Filter:        off\n")
	}
	fmt.Fprintf(&sb, "  Trade Every Day:  %t\n", c.TradeEveryDay)
	sb.WriteString("\n")

	for _, p := range []PerformanceRow{r.Strategy, r.Benchmark} {
		fmt.Fprintf(&sb, "%s:\n", p.Label)
		fmt.Fprintf(&sb, "  Final Value:      %s\n", amount(p.FinalValue))
		fmt.Fprintf(&sb, "  Total Return:     %s\n", pct(p.TotalReturn))
		fmt.Fprintf(&sb, "  Annualized:       %s\n", pct(p.AnnualizedReturn))
		fmt.Fprintf(&sb, "  Geometric Annual: %s\n", pct(p.GeometricAnnualized))
		fmt.Fprintf(&sb, "  Max Drawdown:     %s\n", pct(p.MaxDrawdown))
		if p.Label == r.Strategy.Label {
			fmt.Fprintf(&sb, "  Volatility:       %s\n", pct(p.Volatility))
			fmt.Fprintf(&sb, "  Sharpe:           %s\n", fixed(p.Sharpe, 2))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Trades:\n")
	if !r.HasTradeAgg {
		sb.WriteString("  No closed trades.\n")
		return sb.String()
	}
	t := r.TradeStats
	fmt.Fprintf(&sb, "  Count:            %d (%d long, %d short)\n", t.TotalTrades, t.LongTrades, t.ShortTrades)
	fmt.Fprintf(&sb, "  Win Rate:         %s\n", pct(t.WinRate))
	fmt.Fprintf(&sb, "  Exits:            %d stop loss, %d rollover\n", t.StopLossExits, t.RolloverExits)
	fmt.Fprintf(&sb, "  Net Return P10:   %s\n", pct(t.OutcomeP10))
	fmt.Fprintf(&sb, "  Net Return P50:   %s\n", pct(t.OutcomeMedian))
	fmt.Fprintf(&sb, "  Net Return P90:   %s\n", pct(t.OutcomeP90))
	fmt.Fprintf(&sb, "  Max Loss Streak:  %d\n", t.MaxConsecutiveLosses)

	return sb.String()
}
