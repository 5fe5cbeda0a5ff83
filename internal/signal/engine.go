// Package signal derives daily breakout targets and evaluates entries.
package signal

import (
	"math"

	"breakout-lab/internal/domain"
)

// Entry is a triggered entry decision.
type Entry struct {
	Side     domain.Side
	Price    float64
	Stop     float64
	Leverage float64
	MA       float64 // 0 when no moving average was available
}

// Engine holds the breakout targets of the current day.
// Targets are live from a rollover until Clear or the next rollover.
type Engine struct {
	cfg     domain.StrategyConfig
	targets domain.Targets
	live    bool
}

// NewEngine creates a signal engine with no live targets.
func NewEngine(cfg domain.StrategyConfig) *Engine {
	return &Engine{cfg: cfg}
}

// OnRollover computes the new day's targets from the completed day:
// buy = close + range * longK, sell = close - range * shortK.
func (e *Engine) OnRollover(prev domain.DailyAggregate) domain.Targets {
	rng := prev.Range()
	e.targets = domain.Targets{
		Buy:  prev.Close + rng*e.cfg.LongK,
		Sell: prev.Close - rng*e.cfg.ShortK,
	}
	e.live = true
	return e.targets
}

// Targets returns the live targets, if any.
func (e *Engine) Targets() (domain.Targets, bool) {
	return e.targets, e.live
}

// Clear invalidates the targets after they were consumed by an entry.
func (e *Engine) Clear() {
	e.targets = domain.Targets{}
	e.live = false
}

// Evaluate checks the candle against the live targets.
// dayOpen is the current day's opening price and benchmark the daily close
// history as it stands. Long is checked first; short only when long did not
// produce an entry and shorting is enabled.
func (e *Engine) Evaluate(c domain.Candle, dayOpen float64, benchmark []float64) (Entry, bool) {
	if !e.live {
		return Entry{}, false
	}

	ma, hasMA := MovingAverage(benchmark, e.cfg.MAWindowDays)
	if e.cfg.EnableMA && !hasMA {
		return Entry{}, false
	}

	leverage := e.cfg.Leverage
	if hasMA {
		leverage = SelectLeverage(e.cfg.Leverage, e.cfg.DistanceToLeverage, Distance(c.Close, ma))
	}

	if price, ok := e.longEntry(c, dayOpen, ma); ok {
		return Entry{
			Side:     domain.SideLong,
			Price:    price,
			Stop:     StopPrice(domain.SideLong, price, e.cfg.StopLoss),
			Leverage: leverage,
			MA:       ma,
		}, true
	}

	if !e.cfg.EnableShorting {
		return Entry{}, false
	}
	if price, ok := e.shortEntry(c, dayOpen, ma); ok {
		return Entry{
			Side:     domain.SideShort,
			Price:    price,
			Stop:     StopPrice(domain.SideShort, price, e.cfg.StopLoss),
			Leverage: leverage,
			MA:       ma,
		}, true
	}
	return Entry{}, false
}

func (e *Engine) longEntry(c domain.Candle, dayOpen, ma float64) (float64, bool) {
	if c.High <= e.targets.Buy {
		return 0, false
	}
	if !e.cfg.EnableMA {
		return e.targets.Buy, true
	}
	if dayOpen <= ma {
		return 0, false
	}
	return math.Max(e.targets.Buy, ma), true
}

func (e *Engine) shortEntry(c domain.Candle, dayOpen, ma float64) (float64, bool) {
	if c.Low >= e.targets.Sell {
		return 0, false
	}
	if !e.cfg.EnableMA {
		return e.targets.Sell, true
	}
	if dayOpen >= ma {
		return 0, false
	}
	return math.Min(e.targets.Sell, ma), true
}

// MovingAverage returns the mean of the last window values of history.
// A history shorter than window averages what is there; an empty history
// has no average.
func MovingAverage(history []float64, window int) (float64, bool) {
	if len(history) == 0 || window <= 0 {
		return 0, false
	}
	start := len(history) - window
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, v := range history[start:] {
		sum += v
	}
	return sum / float64(len(history)-start), true
}

// Distance returns |price - ma| / ma, or 0 when ma is not positive.
func Distance(price, ma float64) float64 {
	if ma <= 0 {
		return 0
	}
	return math.Abs(price-ma) / ma
}

// SelectLeverage walks the tiers in the given order and returns the leverage
// of the last tier whose threshold dist strictly exceeds. Without such a
// tier the base leverage is kept.
func SelectLeverage(base float64, tiers []domain.LeverageTier, dist float64) float64 {
	leverage := base
	for _, tier := range tiers {
		if dist > tier.Threshold {
			leverage = tier.Leverage
		}
	}
	return leverage
}

// StopPrice derives the stop from the entry price:
// entry*(1-f) for long, entry*(1+f) for short.
func StopPrice(side domain.Side, entry, stopLoss float64) float64 {
	if side == domain.SideShort {
		return entry * (1 + stopLoss)
	}
	return entry * (1 - stopLoss)
}
