// Package daybar rolls fine-grained candles into a running daily bar.
package daybar

import (
	"errors"
	"time"

	"breakout-lab/internal/domain"
)

// ErrOutOfOrder is returned when a candle belongs to a day before the
// current aggregate's day.
var ErrOutOfOrder = errors.New("candle is before the current day")

// Aggregator holds the running DailyAggregate.
// The aggregate is replaced wholesale by Seed and only widened by Update.
type Aggregator struct {
	loc    *time.Location
	bar    domain.DailyAggregate
	seeded bool
}

// NewAggregator creates an aggregator that cuts days at midnight in loc.
// A nil loc means UTC.
func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{loc: loc}
}

// DayOf returns the start of the calendar day containing the candle.
func (a *Aggregator) DayOf(c domain.Candle) time.Time {
	t := time.UnixMilli(c.TimestampMs).In(a.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
}

// Seed starts a new day from a single candle: open, high, low and close are
// all set to the candle close and volume is reset to zero.
// The candle's own volume is folded in by the Update that follows.
func (a *Aggregator) Seed(c domain.Candle) {
	a.bar = domain.DailyAggregate{
		DayStart: a.DayOf(c),
		Open:     c.Close,
		High:     c.Close,
		Low:      c.Close,
		Close:    c.Close,
	}
	a.seeded = true
}

// Update widens high/low, overwrites close and accumulates volume.
func (a *Aggregator) Update(c domain.Candle) {
	if c.High > a.bar.High {
		a.bar.High = c.High
	}
	if c.Low < a.bar.Low {
		a.bar.Low = c.Low
	}
	a.bar.Close = c.Close
	a.bar.Volume += c.Volume
}

// IsNewDay reports whether the candle's calendar day is strictly later than
// the current day. Candles of an earlier day return ErrOutOfOrder.
func (a *Aggregator) IsNewDay(c domain.Candle) (bool, error) {
	day := a.DayOf(c)
	switch {
	case day.Before(a.bar.DayStart):
		return false, ErrOutOfOrder
	case day.After(a.bar.DayStart):
		return true, nil
	default:
		return false, nil
	}
}

// Current returns the running aggregate.
func (a *Aggregator) Current() domain.DailyAggregate {
	return a.bar
}

// Seeded reports whether the first candle has been seen.
func (a *Aggregator) Seeded() bool {
	return a.seeded
}
