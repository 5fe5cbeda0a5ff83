package domain

import "time"

// Side is the direction of a position.
type Side string

// Side constants.
const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Position represents the single open position of a run.
// StopPrice is always set together with EntryPrice.
type Position struct {
	Side       Side
	EntryPrice float64
	StopPrice  float64
	Leverage   float64   // leverage applied when the position closes
	OpenedOn   time.Time // trading day of entry
}

// Trade represents a closed position.
type Trade struct {
	Side       Side
	EntryDay   time.Time
	ExitDay    time.Time
	EntryPrice float64
	ExitPrice  float64
	StopPrice  float64
	Leverage   float64
	RawReturn  float64 // price move before costs and leverage
	NetReturn  float64 // after round-trip cost, before leverage
	Balance    float64 // account balance after the close
	ExitReason string
}

// Exit reason codes
const (
	ExitReasonStopLoss    = "STOP_LOSS"
	ExitReasonDayRollover = "DAY_ROLLOVER"
)
