package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakout-lab/internal/storage/memory"
)

func TestSync_ResumesFromProgress(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCandleStore()
	progress := memory.NewFetchProgressStore()
	client := &fakeKlines{n: 5}
	b := Binance{Client: client, Symbol: "ETHUSDT", PageLimit: 2, Pause: time.Millisecond}

	n, err := Sync(ctx, b, store, progress)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	p, err := progress.GetLastFetched(ctx, "ETHUSDT", DefaultInterval)
	require.NoError(t, err)
	assert.Equal(t, int64(4*60000), p.LastFetched)

	// The upstream grows; a second sync only downloads the new candles.
	client.n = 8
	client.starts = nil
	n, err = Sync(ctx, b, store, progress)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(4*60000+1), client.starts[0])

	all, err := store.GetBySymbol(ctx, "ETHUSDT", DefaultInterval)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestSync_ResumesFromStoreWithoutProgress(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCandleStore()
	client := &fakeKlines{n: 3}
	b := Binance{Client: client, Symbol: "ETHUSDT", Pause: time.Millisecond}

	_, err := Sync(ctx, b, store, nil)
	require.NoError(t, err)

	client.n = 4
	n, err := Sync(ctx, b, store, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSync_StartIsLowerBound(t *testing.T) {
	ctx := context.Background()
	client := &fakeKlines{n: 10}
	b := Binance{Client: client, Symbol: "ETHUSDT", Start: 7 * 60000, Pause: time.Millisecond}

	n, err := Sync(ctx, b, memory.NewCandleStore(), memory.NewFetchProgressStore())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
