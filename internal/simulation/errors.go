package simulation

import (
	"errors"

	"breakout-lab/internal/daybar"
	"breakout-lab/internal/ledger"
	"breakout-lab/internal/position"
)

// Simulation errors. Every failure inside a run is wrapped with the candle
// index and day that triggered it.
var (
	ErrEmptyFeed     = errors.New("candle feed is empty")
	ErrInvalidCandle = errors.New("candle has negative or inconsistent prices")

	ErrOutOfOrder         = daybar.ErrOutOfOrder
	ErrNonPositivePrice   = position.ErrNonPositivePrice
	ErrNonPositiveBalance = ledger.ErrNonPositiveBalance
)
