package simulation

import (
	"math"
	"time"

	"breakout-lab/internal/daybar"
	"breakout-lab/internal/domain"
	"breakout-lab/internal/eventlog"
	"breakout-lab/internal/ledger"
	"breakout-lab/internal/position"
	"breakout-lab/internal/signal"
)

// State is the mutable state of one run. It is owned by a single goroutine
// for the run's duration and never shared between runs.
type State struct {
	cfg       domain.StrategyConfig
	bars      *daybar.Aggregator
	signals   *signal.Engine
	positions *position.Manager
	ledger    *ledger.Ledger

	lastTs    int64
	tradeable bool
	candles   int
}

// NewState creates the state for a run. cfg must be valid.
func NewState(cfg domain.StrategyConfig, sink eventlog.Sink, loc *time.Location) *State {
	l := ledger.New(cfg.InitialBalance)
	return &State{
		cfg:       cfg,
		bars:      daybar.NewAggregator(loc),
		signals:   signal.NewEngine(cfg),
		positions: position.NewManager(cfg, l, sink),
		ledger:    l,
		tradeable: true,
	}
}

// Step feeds one candle through the fixed per-candle sequence:
//  1. Seed on the first candle, otherwise check ordering
//  2. Roll over on a new day
//  3. Stop check while open, entry check while flat and tradeable
//  4. Fold the candle into the running daily bar
func (s *State) Step(c domain.Candle) error {
	if err := validateCandle(c); err != nil {
		return err
	}

	if !s.bars.Seeded() {
		s.bars.Seed(c)
	} else {
		if c.TimestampMs < s.lastTs {
			return ErrOutOfOrder
		}
		newDay, err := s.bars.IsNewDay(c)
		if err != nil {
			return err
		}
		if newDay {
			if err := s.rollover(c); err != nil {
				return err
			}
		}
	}
	s.lastTs = c.TimestampMs
	s.candles++

	bar := s.bars.Current()
	if _, open := s.positions.Current(); open {
		if _, err := s.positions.CheckStop(bar.DayStart, c); err != nil {
			return err
		}
	} else if s.tradeable {
		if entry, ok := s.signals.Evaluate(c, bar.Open, s.ledger.Benchmark()); ok {
			if err := s.positions.Open(bar.DayStart, entry, bar.Open); err != nil {
				return err
			}
			s.signals.Clear()
		}
	}

	s.bars.Update(c)
	return nil
}

// rollover finalizes the completed day and starts the one c belongs to.
// The benchmark append happens before the forced exit and before any entry
// decision of the new day.
func (s *State) rollover(c domain.Candle) error {
	prev := s.bars.Current()
	day := s.bars.DayOf(c)

	s.ledger.RecordBenchmark(prev.Close)

	closed, err := s.positions.Close(day, c.Open, domain.ExitReasonDayRollover)
	if err != nil {
		return err
	}
	s.tradeable = s.cfg.TradeEveryDay || !closed

	s.signals.OnRollover(prev)
	s.bars.Seed(c)
	return nil
}

// Account returns a snapshot of the run's account.
func (s *State) Account() *domain.Account {
	return s.ledger.Account()
}

// Position returns the open position, if any.
func (s *State) Position() (domain.Position, bool) {
	return s.positions.Current()
}

// Targets returns the live breakout targets, if any.
func (s *State) Targets() (domain.Targets, bool) {
	return s.signals.Targets()
}

// DailyBar returns the running aggregate of the current day.
func (s *State) DailyBar() domain.DailyAggregate {
	return s.bars.Current()
}

// DayOf returns the calendar day a candle belongs to.
func (s *State) DayOf(c domain.Candle) time.Time {
	return s.bars.DayOf(c)
}

// Tradeable reports whether entries are allowed for the current day.
func (s *State) Tradeable() bool {
	return s.tradeable
}

// Candles returns the number of candles processed.
func (s *State) Candles() int {
	return s.candles
}

func validateCandle(c domain.Candle) error {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidCandle
		}
	}
	if c.High < c.Low {
		return ErrInvalidCandle
	}
	return nil
}
