package feed

import (
	"context"
	"sort"

	"breakout-lab/internal/domain"
)

// DefaultSplitMs separates the training feed from the test feed
// (2021-01-01T00:00:00Z).
const DefaultSplitMs int64 = 1609459200000

// Window returns the candles with fromMs <= timestamp < toMs. A zero toMs
// leaves the window open-ended. candles must be ordered; the result shares
// its backing array.
func Window(candles []domain.Candle, fromMs, toMs int64) []domain.Candle {
	lo := sort.Search(len(candles), func(i int) bool {
		return candles[i].TimestampMs >= fromMs
	})
	hi := len(candles)
	if toMs != 0 {
		hi = sort.Search(len(candles), func(i int) bool {
			return candles[i].TimestampMs >= toMs
		})
	}
	if hi < lo {
		return nil
	}
	return candles[lo:hi]
}

// Split divides candles at splitMs into a training and a test feed.
func Split(candles []domain.Candle, splitMs int64) (train, test []domain.Candle) {
	i := sort.Search(len(candles), func(i int) bool {
		return candles[i].TimestampMs >= splitMs
	})
	return candles[:i], candles[i:]
}

// Windowed restricts another source to [FromMs, ToMs).
type Windowed struct {
	Source Source
	FromMs int64
	ToMs   int64 // 0 leaves the window open-ended
}

// Name returns the wrapped source's name.
func (w Windowed) Name() string { return w.Source.Name() }

// Load loads the wrapped source and cuts it to the window.
func (w Windowed) Load(ctx context.Context) ([]domain.Candle, error) {
	candles, err := w.Source.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Window(candles, w.FromMs, w.ToMs), nil
}
