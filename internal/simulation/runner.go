package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/eventlog"
	"breakout-lab/internal/feed"
	"breakout-lab/internal/idhash"
	"breakout-lab/internal/ledger"
	"breakout-lab/internal/observability"
	"breakout-lab/internal/storage"
)

// Run statuses recorded in metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Runner loads a feed, simulates it and records the outcome.
type Runner struct {
	source   feed.Source
	runStore storage.RunStore
	metrics  *observability.Metrics
	sink     eventlog.Sink
	loc      *time.Location
	symbol   string
}

// RunnerOptions contains configuration for creating a Runner.
// Only Source is required.
type RunnerOptions struct {
	Source   feed.Source
	RunStore storage.RunStore       // persist run records when set
	Metrics  *observability.Metrics // record run metrics when set
	Sink     eventlog.Sink          // event log, defaults to eventlog.Nop
	Location *time.Location         // day boundary, defaults to UTC
	Symbol   string                 // recorded in the run record
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{
		source:   opts.Source,
		runStore: opts.RunStore,
		metrics:  opts.Metrics,
		sink:     opts.Sink,
		loc:      opts.Location,
		symbol:   opts.Symbol,
	}
}

// Run executes a simulation of cfg over the runner's feed.
// Steps:
//  1. Load candles from the source
//  2. Simulate and summarize
//  3. Persist the run record (an existing identical run is kept)
//  4. Record metrics
func (r *Runner) Run(ctx context.Context, cfg domain.StrategyConfig) (*domain.RunRecord, error) {
	start := time.Now()
	candles, err := r.source.Load(ctx)
	if err != nil {
		r.recordFailure(start, 0)
		return nil, fmt.Errorf("load %s feed: %w", r.source.Name(), err)
	}
	if r.metrics != nil {
		r.metrics.RecordFetch(r.source.Name(), len(candles), time.Since(start).Seconds())
	}

	return r.RunCandles(ctx, cfg, candles)
}

// RunCandles is Run over an already loaded feed.
func (r *Runner) RunCandles(ctx context.Context, cfg domain.StrategyConfig, candles []domain.Candle) (*domain.RunRecord, error) {
	start := time.Now()

	acct, err := Run(cfg, candles, WithSink(r.sink), WithLocation(r.loc))
	if err != nil {
		r.recordFailure(start, len(candles))
		return nil, err
	}
	record := NewRecord(r.symbol, cfg, candles, acct)

	if r.runStore != nil {
		if err := r.persist(ctx, record); err != nil {
			r.recordFailure(start, len(candles))
			return nil, err
		}
	}

	if r.metrics != nil {
		r.metrics.RecordRun(StatusSuccess, time.Since(start).Seconds(), len(candles), acct.TradeCount)
		r.metrics.RecordRunStats(record.Stats.MaxDrawdown, record.Stats.TotalReturn, time.Now().Unix())
	}
	return record, nil
}

func (r *Runner) persist(ctx context.Context, record *domain.RunRecord) error {
	start := time.Now()
	err := r.runStore.Insert(ctx, record)
	if errors.Is(err, storage.ErrDuplicateKey) {
		err = nil
	}
	if r.metrics != nil {
		r.metrics.RecordDBQuery("postgres", "insert_run", time.Since(start).Seconds(), err)
	}
	if err != nil {
		return fmt.Errorf("persist run %s: %w", record.RunID, err)
	}
	return nil
}

func (r *Runner) recordFailure(start time.Time, candles int) {
	if r.metrics != nil {
		r.metrics.RecordRun(StatusError, time.Since(start).Seconds(), candles, 0)
	}
}

// NewRecord summarizes a finished account into a run record.
// candles must be the non-empty feed the account was simulated over.
func NewRecord(symbol string, cfg domain.StrategyConfig, candles []domain.Candle, acct *domain.Account) *domain.RunRecord {
	first := candles[0].TimestampMs
	last := candles[len(candles)-1].TimestampMs

	return &domain.RunRecord{
		RunID:            idhash.ComputeRunID(symbol, cfg, first, last, len(candles)),
		Symbol:           symbol,
		Config:           cfg,
		FirstCandleMs:    first,
		LastCandleMs:     last,
		CandleCount:      len(candles),
		Stats:            ledger.Summarize(acct),
		FinalBalance:     acct.Balance,
		BalanceHistory:   acct.BalanceHistory,
		BenchmarkHistory: acct.BenchmarkHistory,
		Trades:           acct.Trades,
	}
}
