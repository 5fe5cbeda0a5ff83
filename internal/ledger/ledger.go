// Package ledger accumulates the balance, benchmark and trade history of one
// simulation run.
package ledger

import (
	"errors"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/metrics"
)

// ErrNonPositiveBalance is returned when a return would be applied to an
// account with zero or negative balance.
var ErrNonPositiveBalance = errors.New("balance must be positive")

// Ledger owns the Account state of a run.
// BalanceHistory and BenchmarkHistory only grow; SyncBalance keeps them aligned.
type Ledger struct {
	initial   float64
	balance   float64
	balances  []float64
	benchmark []float64
	trades    []domain.Trade
	count     int
}

// New creates a ledger with the given starting balance.
func New(initialBalance float64) *Ledger {
	return &Ledger{
		initial: initialBalance,
		balance: initialBalance,
	}
}

// RecordBenchmark appends the close of a completed day to the buy-and-hold series.
func (l *Ledger) RecordBenchmark(close float64) {
	l.benchmark = append(l.benchmark, close)
}

// SyncBalance appends the current balance when the benchmark series is ahead
// of the balance series. Returns true if a value was appended.
func (l *Ledger) SyncBalance() bool {
	if len(l.balances) >= len(l.benchmark) {
		return false
	}
	l.balances = append(l.balances, l.balance)
	return true
}

// Apply compounds a leveraged net return into the balance:
// balance += netReturn * leverage * balance.
// Returns the new balance.
func (l *Ledger) Apply(netReturn, leverage float64) (float64, error) {
	if l.balance <= 0 {
		return l.balance, ErrNonPositiveBalance
	}
	l.balance += netReturn * leverage * l.balance
	return l.balance, nil
}

// CountTrade increments the trade counter. Called on every position open.
func (l *Ledger) CountTrade() {
	l.count++
}

// Journal appends a closed trade.
func (l *Ledger) Journal(t domain.Trade) {
	l.trades = append(l.trades, t)
}

// Balance returns the current balance.
func (l *Ledger) Balance() float64 {
	return l.balance
}

// TradeCount returns the number of opened positions.
func (l *Ledger) TradeCount() int {
	return l.count
}

// Benchmark returns the benchmark history as it stands.
// The returned slice is shared and must not be modified.
func (l *Ledger) Benchmark() []float64 {
	return l.benchmark
}

// Days returns the number of completed days.
func (l *Ledger) Days() int {
	return len(l.benchmark)
}

// RunningDrawdown returns the max drawdown of the initial balance, the
// balance history and the current balance, as a negative fraction.
func (l *Ledger) RunningDrawdown() float64 {
	curve := make([]float64, 0, len(l.balances)+2)
	curve = append(curve, l.initial)
	curve = append(curve, l.balances...)
	curve = append(curve, l.balance)
	return metrics.DrawdownOfCurve(curve)
}

// Account returns a snapshot of the ledger state.
func (l *Ledger) Account() *domain.Account {
	acct := domain.Account{
		InitialBalance:   l.initial,
		Balance:          l.balance,
		BalanceHistory:   l.balances,
		BenchmarkHistory: l.benchmark,
		TradeCount:       l.count,
		Trades:           l.trades,
	}.Clone()
	return &acct
}
