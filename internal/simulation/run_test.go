package simulation

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/eventlog"
)

var baseDay = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

// bar builds a candle on the given day (0-based from baseDay) and minute.
func bar(day, minute int, o, h, l, c float64) domain.Candle {
	ts := baseDay.AddDate(0, 0, day).Add(time.Duration(minute) * time.Minute)
	return domain.Candle{TimestampMs: ts.UnixMilli(), Open: o, High: h, Low: l, Close: c, Volume: 1}
}

func zeroCost() domain.StrategyConfig {
	cfg := domain.DefaultStrategyConfig()
	cfg.LongK = 0.5
	cfg.ShortK = 0.5
	cfg.FeeFraction = 0
	cfg.SlippageFraction = 0
	cfg.StopLoss = 0.02
	return cfg
}

// firstDay closes at 90 with range 20: buy target 100, sell target 80 at K=0.5.
func firstDay() []domain.Candle {
	return []domain.Candle{
		bar(0, 0, 80, 80, 80, 80),
		bar(0, 60, 80, 100, 80, 90),
	}
}

func TestRun_NoBreakout(t *testing.T) {
	cfg := zeroCost()
	cfg.EnableShorting = true

	candles := firstDay()
	candles = append(candles,
		bar(1, 0, 90, 95, 85, 92),
		bar(1, 60, 92, 100, 80, 88), // touches both targets without crossing
		bar(2, 0, 88, 89, 87, 88),
	)

	acct, err := Run(cfg, candles)
	require.NoError(t, err)

	assert.Equal(t, 0, acct.TradeCount)
	assert.Equal(t, cfg.InitialBalance, acct.Balance)
	assert.Equal(t, []float64{cfg.InitialBalance, cfg.InitialBalance}, acct.BalanceHistory)
	assert.Equal(t, []float64{90, 88}, acct.BenchmarkHistory)
}

func TestRun_LongEntryAtBuyTarget(t *testing.T) {
	sink := eventlog.NewMemory()
	candles := append(firstDay(),
		bar(1, 0, 90, 95, 90, 92),
		bar(1, 60, 92, 101, 92, 100),
	)

	acct, err := Run(zeroCost(), candles, WithSink(sink))
	require.NoError(t, err)

	assert.Equal(t, 1, acct.TradeCount)
	assert.Empty(t, acct.Trades, "position is still open at the end of the feed")
	assert.Equal(t, zeroCost().InitialBalance, acct.Balance)

	opens := sink.ByEvent(eventlog.EventOpenPosition)
	require.Len(t, opens, 1)
	assert.Equal(t, "LONG", opens[0].Get("side"))
	assert.InDelta(t, 100.0, opens[0].Get("entry price").(float64), 1e-9)
	assert.Equal(t, 92.0, opens[0].Get("day open"))
	assert.True(t, opens[0].Day.Equal(baseDay.AddDate(0, 0, 1)))
}

func TestRun_StopLossExit(t *testing.T) {
	candles := append(firstDay(),
		bar(1, 0, 90, 95, 90, 92),
		bar(1, 60, 92, 101, 92, 100),
		bar(1, 120, 100, 100, 97, 97.5),
		bar(2, 0, 97.5, 98, 97, 97.5),
	)

	acct, err := Run(zeroCost(), candles)
	require.NoError(t, err)

	require.Len(t, acct.Trades, 1)
	trade := acct.Trades[0]
	assert.Equal(t, domain.ExitReasonStopLoss, trade.ExitReason)
	assert.InDelta(t, 100.0, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 98.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, -0.02, trade.RawReturn, 1e-9)
	assert.InDelta(t, 9800.0, acct.Balance, 1e-6)
	assert.Equal(t, 2, len(acct.BalanceHistory))
	assert.InDelta(t, 9800.0, acct.BalanceHistory[1], 1e-6)
}

func TestRun_CostApplication(t *testing.T) {
	cfg := zeroCost()
	cfg.FeeFraction = 0.0003
	cfg.SlippageFraction = 0.0001

	candles := append(firstDay(),
		bar(1, 0, 90, 95, 90, 92),
		bar(1, 60, 92, 101, 92, 100),
		bar(2, 0, 105, 106, 104, 105),
	)

	acct, err := Run(cfg, candles)
	require.NoError(t, err)

	require.Len(t, acct.Trades, 1)
	trade := acct.Trades[0]
	assert.Equal(t, domain.ExitReasonDayRollover, trade.ExitReason)
	assert.InDelta(t, 105.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 0.0008, trade.RawReturn-trade.NetReturn, 1e-12)
	assert.InDelta(t, 10000*(1+trade.NetReturn), acct.Balance, 1e-6)
}

func TestRun_LeverageTieBreak(t *testing.T) {
	cfg := zeroCost()
	cfg.DistanceToLeverage = []domain.LeverageTier{
		{Threshold: 0.03, Leverage: 6},
		{Threshold: 0.06, Leverage: 5},
		{Threshold: 0.09, Leverage: 3},
	}
	sink := eventlog.NewMemory()

	// ma = 90 (one completed day); close 96.3 -> dist 0.07
	candles := append(firstDay(),
		bar(1, 0, 90, 95, 90, 92),
		bar(1, 60, 92, 101, 92, 96.3),
	)

	_, err := Run(cfg, candles, WithSink(sink))
	require.NoError(t, err)

	opens := sink.ByEvent(eventlog.EventOpenPosition)
	require.Len(t, opens, 1)
	assert.Equal(t, 5.0, opens[0].Get("leverage"))
}

func TestRun_ForcedExitAtNextDayOpen(t *testing.T) {
	cfg := zeroCost()
	sink := eventlog.NewMemory()
	candles := append(firstDay(),
		bar(1, 0, 90, 95, 90, 92),
		bar(1, 60, 92, 101, 92, 100),
		bar(2, 0, 103, 104, 99.5, 100),
	)

	acct, err := Run(cfg, candles, WithSink(sink))
	require.NoError(t, err)

	require.Len(t, acct.Trades, 1)
	assert.InDelta(t, 103.0, acct.Trades[0].ExitPrice, 1e-9)
	assert.True(t, acct.Trades[0].ExitDay.Equal(baseDay.AddDate(0, 0, 2)))

	closes := sink.ByEvent(eventlog.EventClosePosition)
	require.Len(t, closes, 1)
	assert.Equal(t, domain.ExitReasonDayRollover, closes[0].Get("reason"))
	assert.Equal(t, 0.0, closes[0].Get("max drawdown"))
}

func TestRun_TradeEveryDayGating(t *testing.T) {
	candles := append(firstDay(),
		// day 1: long at 100; aggregate open 92, high 101, low 90, close 100
		bar(1, 0, 90, 95, 90, 92),
		bar(1, 60, 92, 101, 92, 100),
		// day 2: rollover exit at 105; buy target 105.5
		bar(2, 0, 105, 105, 104, 104.5),
		bar(2, 60, 104.5, 120, 104, 110),
		// day 3: flat rollover; buy target 118
		bar(3, 0, 110, 111, 109, 110),
		bar(3, 60, 110, 130, 110, 125),
	)

	cfg := zeroCost()
	cfg.TradeEveryDay = true
	acct, err := Run(cfg, candles)
	require.NoError(t, err)
	assert.Equal(t, 3, acct.TradeCount)

	cfg.TradeEveryDay = false
	sink := eventlog.NewMemory()
	acct, err = Run(cfg, candles, WithSink(sink))
	require.NoError(t, err)
	assert.Equal(t, 2, acct.TradeCount, "day after an overnight exit is skipped")

	opens := sink.ByEvent(eventlog.EventOpenPosition)
	require.Len(t, opens, 2)
	assert.True(t, opens[0].Day.Equal(baseDay.AddDate(0, 0, 1)))
	assert.True(t, opens[1].Day.Equal(baseDay.AddDate(0, 0, 3)))
}

func TestRun_ShortWithMA(t *testing.T) {
	cfg := zeroCost()
	cfg.EnableShorting = true
	cfg.EnableMA = true

	// ma = 90; day 1 opens (seed close) at 85 below ma; sell target 80
	candles := append(firstDay(),
		bar(1, 0, 88, 88, 84, 85),
		bar(1, 60, 85, 86, 79, 80),
		bar(2, 0, 78, 79, 77, 78),
	)

	acct, err := Run(cfg, candles)
	require.NoError(t, err)

	require.Len(t, acct.Trades, 1)
	trade := acct.Trades[0]
	assert.Equal(t, domain.SideShort, trade.Side)
	assert.InDelta(t, 80.0, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 80.0/78.0-1, trade.RawReturn, 1e-12)
}

func TestRun_HistoryAlignment(t *testing.T) {
	cfg := domain.DefaultStrategyConfig()
	cfg.EnableShorting = true
	cfg.EnableMA = true
	cfg.DistanceToLeverage = []domain.LeverageTier{{Threshold: 0.01, Leverage: 2}}

	const days = 40
	candles := syntheticFeed(days, 24)

	acct, err := Run(cfg, candles)
	require.NoError(t, err)

	assert.Len(t, acct.BalanceHistory, days-1)
	assert.Len(t, acct.BenchmarkHistory, days-1)
	assert.Greater(t, acct.TradeCount, 0)
}

func TestRun_Deterministic(t *testing.T) {
	cfg := domain.DefaultStrategyConfig()
	cfg.EnableShorting = true
	cfg.Leverage = 2
	candles := syntheticFeed(30, 48)

	sinkA := eventlog.NewMemory()
	sinkB := eventlog.NewMemory()

	a, err := Run(cfg, candles, WithSink(sinkA))
	require.NoError(t, err)
	b, err := Run(cfg, candles, WithSink(sinkB))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, sinkA.Records(), sinkB.Records())
}

func TestRun_Errors(t *testing.T) {
	_, err := Run(domain.DefaultStrategyConfig(), nil)
	assert.ErrorIs(t, err, ErrEmptyFeed)

	bad := domain.DefaultStrategyConfig()
	bad.StopLoss = 1
	_, err = Run(bad, firstDay())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = Run(domain.DefaultStrategyConfig(), []domain.Candle{bar(1, 0, 1, 1, 1, 1), bar(0, 0, 1, 1, 1, 1)})
	require.ErrorIs(t, err, ErrOutOfOrder)
	assert.True(t, strings.HasPrefix(err.Error(), "candle 1 (2021-03-01)"), err.Error())

	_, err = Run(domain.DefaultStrategyConfig(), []domain.Candle{bar(0, 10, 1, 1, 1, 1), bar(0, 5, 1, 1, 1, 1)})
	assert.ErrorIs(t, err, ErrOutOfOrder)

	_, err = Run(domain.DefaultStrategyConfig(), []domain.Candle{bar(0, 0, 1, 1, -1, 1)})
	assert.ErrorIs(t, err, ErrInvalidCandle)

	_, err = Run(domain.DefaultStrategyConfig(), []domain.Candle{bar(0, 0, 1, 1, 2, 1)})
	assert.ErrorIs(t, err, ErrInvalidCandle)
}

func TestRun_ZeroOpenOnForcedExit(t *testing.T) {
	candles := append(firstDay(),
		bar(1, 0, 90, 95, 90, 92),
		bar(1, 60, 92, 101, 92, 100),
		bar(2, 0, 0, 101, 0, 100),
	)

	_, err := Run(zeroCost(), candles)
	require.ErrorIs(t, err, ErrNonPositivePrice)
	assert.Contains(t, err.Error(), "candle 4 (2021-03-03)")
}

func TestState_ExposesVariants(t *testing.T) {
	s := NewState(zeroCost(), nil, nil)

	for _, c := range firstDay() {
		require.NoError(t, s.Step(c))
	}
	_, live := s.Targets()
	assert.False(t, live, "no targets before the first rollover")

	require.NoError(t, s.Step(bar(1, 0, 90, 95, 90, 92)))
	targets, live := s.Targets()
	require.True(t, live)
	assert.InDelta(t, 100.0, targets.Buy, 1e-9)
	assert.InDelta(t, 80.0, targets.Sell, 1e-9)

	require.NoError(t, s.Step(bar(1, 60, 92, 101, 92, 100)))
	_, live = s.Targets()
	assert.False(t, live, "targets are consumed by the entry")

	pos, open := s.Position()
	require.True(t, open)
	assert.InDelta(t, 98.0, pos.StopPrice, 1e-9)

	assert.Equal(t, 4, s.Candles())
	assert.Equal(t, 92.0, s.DailyBar().Open)
	assert.Equal(t, 101.0, s.DailyBar().High)
	assert.True(t, s.Tradeable())
}

// syntheticFeed builds a deterministic oscillating feed of perDay candles a day.
func syntheticFeed(days, perDay int) []domain.Candle {
	step := 24 * 60 / perDay
	candles := make([]domain.Candle, 0, days*perDay)
	price := 100.0
	for d := 0; d < days; d++ {
		for i := 0; i < perDay; i++ {
			n := float64(d*perDay + i)
			next := 100 + 15*math.Sin(n/17) + 5*math.Sin(n/3.1)
			high := math.Max(price, next) * 1.004
			low := math.Min(price, next) * 0.996
			candles = append(candles, bar(d, i*step, price, high, low, next))
			price = next
		}
	}
	return candles
}
