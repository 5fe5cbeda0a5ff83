package optimize

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/ledger"
	"breakout-lab/internal/observability"
	"breakout-lab/internal/simulation"
)

func feed(days, perDay int) []domain.Candle {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	step := 24 * 60 / perDay
	candles := make([]domain.Candle, 0, days*perDay)
	price := 100.0
	for d := 0; d < days; d++ {
		for i := 0; i < perDay; i++ {
			n := float64(d*perDay + i)
			next := 100 + 12*math.Sin(n/13) + 4*math.Sin(n/2.7)
			ts := start.AddDate(0, 0, d).Add(time.Duration(i*step) * time.Minute)
			candles = append(candles, domain.Candle{
				TimestampMs: ts.UnixMilli(),
				Open:        price,
				High:        math.Max(price, next) * 1.003,
				Low:         math.Min(price, next) * 0.997,
				Close:       next,
				Volume:      1,
			})
			price = next
		}
	}
	return candles
}

func TestRange_Values(t *testing.T) {
	vals, err := Range{Min: 0.1, Max: 0.3, Step: 0.1}.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vals)

	vals, err = Range{Min: 0.5, Max: 0.5, Step: 1}.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, vals)

	_, err = Range{Min: 1, Max: 0, Step: 0.1}.Values()
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = Range{Min: 0, Max: 1, Step: 0}.Values()
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestDefaultSpace_Points(t *testing.T) {
	points, err := DefaultSpace().Points()
	require.NoError(t, err)
	assert.Len(t, points, 19*20)
	assert.Equal(t, Point{K: 0.1, StopLoss: 0.005}, points[0])
	assert.Equal(t, Point{K: 1, StopLoss: 0.1}, points[len(points)-1])
}

func TestParseObjective(t *testing.T) {
	o, err := ParseObjective("return")
	require.NoError(t, err)
	assert.Equal(t, ObjectiveReturn, o)

	_, err = ParseObjective("sharpe")
	assert.ErrorIs(t, err, ErrUnknownObjective)
}

func TestGridSearch_MatchesSingleRuns(t *testing.T) {
	candles := feed(12, 24)
	base := domain.DefaultStrategyConfig()
	space := Space{
		K:        Range{Min: 0.3, Max: 0.7, Step: 0.2},
		StopLoss: Range{Min: 0.01, Max: 0.03, Step: 0.01},
	}

	results, err := GridSearch(context.Background(), candles, base, space, ObjectiveReturn, Options{Workers: 3})
	require.NoError(t, err)
	require.Len(t, results, 9)

	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		assert.True(t, prev.Score > cur.Score || (prev.Score == cur.Score && prev.Index < cur.Index),
			"results not ordered at %d", i)
	}

	best := results[0]
	cfg := base
	cfg.LongK = best.Point.K
	cfg.ShortK = best.Point.K
	cfg.StopLoss = best.Point.StopLoss
	acct, err := simulation.Run(cfg, candles)
	require.NoError(t, err)
	assert.Equal(t, ledger.Summarize(acct), best.Stats)
	assert.Equal(t, acct.Balance, best.FinalBalance)
	assert.Equal(t, best.Stats.TotalReturn, best.Score)
	assert.Equal(t, cfg, best.Config)
}

func TestGridSearch_TiesShortKToGridK(t *testing.T) {
	base := domain.DefaultStrategyConfig()
	base.ShortK = 0.9
	base.EnableShorting = true
	base.Leverage = 2
	space := Space{
		K:        Range{Min: 0.3, Max: 0.5, Step: 0.2},
		StopLoss: Range{Min: 0.02, Max: 0.02, Step: 0.01},
	}

	results, err := GridSearch(context.Background(), feed(6, 24), base, space, ObjectiveDrawdown, Options{Workers: 1})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, r.Point.K, r.Config.LongK)
		assert.Equal(t, r.Point.K, r.Config.ShortK)
		assert.Equal(t, 0.02, r.Config.StopLoss)
		assert.Equal(t, 2.0, r.Config.Leverage)
		assert.True(t, r.Config.EnableShorting)
	}
}

func TestGridSearch_Deterministic(t *testing.T) {
	candles := feed(8, 24)
	space := Space{
		K:        Range{Min: 0.2, Max: 1, Step: 0.2},
		StopLoss: Range{Min: 0.01, Max: 0.05, Step: 0.02},
	}

	first, err := GridSearch(context.Background(), candles, domain.DefaultStrategyConfig(), space, ObjectiveDrawdown, Options{Workers: 1})
	require.NoError(t, err)
	second, err := GridSearch(context.Background(), candles, domain.DefaultStrategyConfig(), space, ObjectiveDrawdown, Options{Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for _, r := range first {
		assert.Equal(t, r.Stats.MaxDrawdown, r.Score)
		assert.LessOrEqual(t, r.Score, 0.0)
	}
}

func TestGridSearch_RecordsMetrics(t *testing.T) {
	m := observability.NewMetrics("optimize_test", prometheus.NewRegistry())
	space := Space{K: Range{Min: 0.5, Max: 0.6, Step: 0.1}, StopLoss: Range{Min: 0.02, Max: 0.02, Step: 0.01}}

	results, err := GridSearch(context.Background(), feed(5, 24), domain.DefaultStrategyConfig(), space, ObjectiveReturn, Options{Metrics: m})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GridPointsEvaluated))
	assert.Equal(t, results[0].Score, testutil.ToFloat64(m.BestScore))
}

func TestGridSearch_Errors(t *testing.T) {
	ctx := context.Background()
	base := domain.DefaultStrategyConfig()

	_, err := GridSearch(ctx, feed(3, 24), base, DefaultSpace(), Objective("sharpe"), Options{})
	assert.ErrorIs(t, err, ErrUnknownObjective)

	_, err = GridSearch(ctx, feed(3, 24), base, Space{K: Range{Min: 1, Max: 0, Step: 0.1}, StopLoss: DefaultSpace().StopLoss}, ObjectiveReturn, Options{})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = GridSearch(ctx, nil, base, DefaultSpace(), ObjectiveReturn, Options{Workers: 2})
	assert.ErrorIs(t, err, simulation.ErrEmptyFeed)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = GridSearch(cancelled, feed(3, 24), base, DefaultSpace(), ObjectiveReturn, Options{Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
}
