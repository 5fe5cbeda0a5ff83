package metrics

import (
	"errors"
	"sort"

	"breakout-lab/internal/domain"
)

// ErrNoTrades is returned when no trades are available for aggregation.
var ErrNoTrades = errors.New("no trades available for aggregation")

// TradeAggregate summarizes the net returns of a trade journal.
type TradeAggregate struct {
	TotalTrades int
	Wins        int // net return > 0
	Losses      int // net return <= 0
	WinRate     float64

	OutcomeMean   float64
	OutcomeMedian float64
	OutcomeP10    float64
	OutcomeP90    float64
	OutcomeMin    float64
	OutcomeMax    float64
	OutcomeStddev float64

	MaxConsecutiveLosses int

	LongTrades    int
	ShortTrades   int
	StopLossExits int
	RolloverExits int
}

// AggregateTrades computes the aggregate of trades in journal order.
// Returns ErrNoTrades if trades is empty.
func AggregateTrades(trades []domain.Trade) (TradeAggregate, error) {
	if len(trades) == 0 {
		return TradeAggregate{}, ErrNoTrades
	}

	agg := TradeAggregate{TotalTrades: len(trades)}
	outcomes := make([]float64, len(trades))
	streak := 0
	for i, t := range trades {
		outcomes[i] = t.NetReturn

		if t.NetReturn > 0 {
			agg.Wins++
			streak = 0
		} else {
			agg.Losses++
			streak++
			if streak > agg.MaxConsecutiveLosses {
				agg.MaxConsecutiveLosses = streak
			}
		}

		switch t.Side {
		case domain.SideLong:
			agg.LongTrades++
		case domain.SideShort:
			agg.ShortTrades++
		}

		switch t.ExitReason {
		case domain.ExitReasonStopLoss:
			agg.StopLossExits++
		case domain.ExitReasonDayRollover:
			agg.RolloverExits++
		}
	}

	agg.WinRate = WinRate(agg.Wins, agg.TotalTrades)
	agg.OutcomeMean = Mean(outcomes)
	agg.OutcomeStddev = Stddev(outcomes)

	sorted := append([]float64(nil), outcomes...)
	sort.Float64s(sorted)
	agg.OutcomeMin = sorted[0]
	agg.OutcomeMax = sorted[len(sorted)-1]
	agg.OutcomeMedian = Percentile(sorted, 0.50)
	agg.OutcomeP10 = Percentile(sorted, 0.10)
	agg.OutcomeP90 = Percentile(sorted, 0.90)

	return agg, nil
}
