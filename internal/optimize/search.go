package optimize

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/ledger"
	"breakout-lab/internal/observability"
	"breakout-lab/internal/simulation"
)

// Objective names what a search maximizes.
type Objective string

// Objectives.
const (
	// ObjectiveDrawdown prefers the shallowest maximum drawdown.
	ObjectiveDrawdown Objective = "drawdown"
	// ObjectiveReturn prefers the highest total return.
	ObjectiveReturn Objective = "return"
)

// ParseObjective validates an objective name.
func ParseObjective(s string) (Objective, error) {
	switch o := Objective(s); o {
	case ObjectiveDrawdown, ObjectiveReturn:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownObjective, s)
	}
}

// Score returns the objective value of stats; higher is better.
func (o Objective) Score(stats domain.Stats) float64 {
	if o == ObjectiveReturn {
		return stats.TotalReturn
	}
	// Max drawdown is a negative fraction, so closer to zero scores higher.
	return stats.MaxDrawdown
}

// Result is the outcome of one grid point.
type Result struct {
	Point        Point
	Index        int // position in grid order
	Score        float64
	Config       domain.StrategyConfig // config the point was simulated with
	Stats        domain.Stats
	FinalBalance float64
}

// Options tunes a search.
type Options struct {
	Workers int                    // parallel runs, defaults to GOMAXPROCS
	Metrics *observability.Metrics // counts evaluated points when set
}

// GridSearch simulates every point of space over candles, starting from
// base with StopLoss replaced and the point's K used for both LongK and
// ShortK. The breakout is symmetric during the search; base.ShortK is
// ignored. Results are ordered best first with
// ties broken by grid order, so the output does not depend on scheduling.
// The first failing run cancels the search.
func GridSearch(ctx context.Context, candles []domain.Candle, base domain.StrategyConfig, space Space, objective Objective, opts Options) ([]Result, error) {
	if _, err := ParseObjective(string(objective)); err != nil {
		return nil, err
	}
	points, err := space.Points()
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(points))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range points {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			cfg := base
			cfg.LongK = p.K
			cfg.ShortK = p.K
			cfg.StopLoss = p.StopLoss

			acct, err := simulation.Run(cfg, candles)
			if err != nil {
				return fmt.Errorf("k=%v stoploss=%v: %w", p.K, p.StopLoss, err)
			}

			stats := ledger.Summarize(acct)
			results[i] = Result{
				Point:        p,
				Index:        i,
				Score:        objective.Score(stats),
				Config:       cfg,
				Stats:        stats,
				FinalBalance: acct.Balance,
			}
			if opts.Metrics != nil {
				opts.Metrics.RecordGridPoint()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})

	if opts.Metrics != nil && len(results) > 0 {
		opts.Metrics.BestScore.Set(results[0].Score)
	}
	return results, nil
}
