// Package position owns the single open position of a run.
package position

import (
	"errors"
	"fmt"
	"time"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/eventlog"
	"breakout-lab/internal/ledger"
	"breakout-lab/internal/signal"
)

// Manager errors
var (
	ErrNonPositivePrice = errors.New("entry and exit prices must be positive")
	ErrAlreadyOpen      = errors.New("a position is already open")
)

// Manager is a two-state machine: Flat or Open.
type Manager struct {
	cfg    domain.StrategyConfig
	ledger *ledger.Ledger
	sink   eventlog.Sink

	pos  domain.Position
	open bool
}

// NewManager creates a flat position manager.
// A nil sink discards events.
func NewManager(cfg domain.StrategyConfig, l *ledger.Ledger, sink eventlog.Sink) *Manager {
	if sink == nil {
		sink = eventlog.Nop{}
	}
	return &Manager{cfg: cfg, ledger: l, sink: sink}
}

// Current returns the open position, if any.
func (m *Manager) Current() (domain.Position, bool) {
	return m.pos, m.open
}

// Open transitions Flat -> Open at the entry price, sets the stop with it
// and counts the trade.
func (m *Manager) Open(day time.Time, entry signal.Entry, dayOpen float64) error {
	if m.open {
		return ErrAlreadyOpen
	}
	if entry.Price <= 0 {
		return fmt.Errorf("open %s at %v: %w", entry.Side, entry.Price, ErrNonPositivePrice)
	}

	m.pos = domain.Position{
		Side:       entry.Side,
		EntryPrice: entry.Price,
		StopPrice:  entry.Stop,
		Leverage:   entry.Leverage,
		OpenedOn:   day,
	}
	m.open = true
	m.ledger.CountTrade()

	fields := []eventlog.Field{
		eventlog.F(eventlog.KeyEvent, eventlog.EventOpenPosition),
		eventlog.F("side", string(entry.Side)),
		eventlog.F("day open", dayOpen),
		eventlog.F("entry price", entry.Price),
		eventlog.F("stop price", entry.Stop),
		eventlog.F("leverage", entry.Leverage),
	}
	if err := m.sink.Record(day, fields); err != nil {
		return fmt.Errorf("record open event: %w", err)
	}
	return nil
}

// CheckStop closes the position at its stop price when the candle breaches
// it: low below the stop for long, high above the stop for short.
// Returns true if the position was closed.
func (m *Manager) CheckStop(day time.Time, c domain.Candle) (bool, error) {
	if !m.open {
		return false, nil
	}
	var hit bool
	switch m.pos.Side {
	case domain.SideLong:
		hit = c.Low < m.pos.StopPrice
	case domain.SideShort:
		hit = c.High > m.pos.StopPrice
	}
	if !hit {
		return false, nil
	}
	return m.Close(day, m.pos.StopPrice, domain.ExitReasonStopLoss)
}

// Close realizes the open position at price and returns to Flat.
// Net return is the raw price move minus the round-trip cost, compounded into
// the balance with the position leverage. With no open position Close only
// aligns the balance history with the benchmark history.
// Returns true if a position was closed.
func (m *Manager) Close(day time.Time, price float64, reason string) (bool, error) {
	if !m.open {
		m.ledger.SyncBalance()
		return false, nil
	}

	pos := m.pos
	if pos.EntryPrice <= 0 || price <= 0 {
		return false, fmt.Errorf("close %s entry %v exit %v: %w", pos.Side, pos.EntryPrice, price, ErrNonPositivePrice)
	}

	raw := RawReturn(pos.Side, pos.EntryPrice, price)
	net := raw - m.cfg.RoundTripCost()

	balance, err := m.ledger.Apply(net, pos.Leverage)
	if err != nil {
		return false, fmt.Errorf("apply return: %w", err)
	}

	m.ledger.Journal(domain.Trade{
		Side:       pos.Side,
		EntryDay:   pos.OpenedOn,
		ExitDay:    day,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		StopPrice:  pos.StopPrice,
		Leverage:   pos.Leverage,
		RawReturn:  raw,
		NetReturn:  net,
		Balance:    balance,
		ExitReason: reason,
	})
	m.pos = domain.Position{}
	m.open = false

	fields := []eventlog.Field{
		eventlog.F(eventlog.KeyEvent, eventlog.EventClosePosition),
		eventlog.F("side", string(pos.Side)),
		eventlog.F("reason", reason),
		eventlog.F("entry price", pos.EntryPrice),
		eventlog.F("exit price", price),
		eventlog.F("return", net),
		eventlog.F("balance", balance),
		eventlog.F("max drawdown", m.ledger.RunningDrawdown()),
	}
	m.ledger.SyncBalance()

	if err := m.sink.Record(day, fields); err != nil {
		return true, fmt.Errorf("record close event: %w", err)
	}
	return true, nil
}

// RawReturn is the price move of a position before costs and leverage:
// exit/entry - 1 for long, entry/exit - 1 for short.
func RawReturn(side domain.Side, entry, exit float64) float64 {
	if side == domain.SideShort {
		return entry/exit - 1
	}
	return exit/entry - 1
}
