// Package simulation runs the breakout strategy over an ordered candle feed.
package simulation

import (
	"fmt"
	"time"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/eventlog"
)

// Option configures a run.
type Option func(*options)

type options struct {
	sink eventlog.Sink
	loc  *time.Location
}

// WithSink sets the event sink. Defaults to eventlog.Nop.
func WithSink(sink eventlog.Sink) Option {
	return func(o *options) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithLocation sets where calendar days start. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// Run simulates cfg over candles and returns the resulting account.
// Run has no global state: identical inputs give identical output.
// The last day of the feed is never finalized and a position still open at
// the end of the feed stays open.
func Run(cfg domain.StrategyConfig, candles []domain.Candle, opts ...Option) (*domain.Account, error) {
	if len(candles) == 0 {
		return nil, ErrEmptyFeed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{sink: eventlog.Nop{}, loc: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}

	state := NewState(cfg, o.sink, o.loc)
	for i, c := range candles {
		if err := state.Step(c); err != nil {
			return nil, fmt.Errorf("candle %d (%s): %w", i, state.DayOf(c).Format(eventlog.DayLayout), err)
		}
	}
	return state.Account(), nil
}
