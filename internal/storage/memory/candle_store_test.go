package memory

import (
	"context"
	"errors"
	"testing"

	"breakout-lab/internal/domain"
	"breakout-lab/internal/storage"
)

func TestCandleStore_InsertBulkAndGet(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	candles := []domain.Candle{
		{TimestampMs: 2000, Open: 1.1, High: 1.2, Low: 1.0, Close: 1.15, Volume: 10},
		{TimestampMs: 1000, Open: 1.0, High: 1.1, Low: 0.9, Close: 1.1, Volume: 5},
	}

	if err := store.InsertBulk(ctx, "BTCUSDT", "1m", candles); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetBySymbol(ctx, "BTCUSDT", "1m")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(result))
	}
	if result[0].TimestampMs != 1000 || result[1].TimestampMs != 2000 {
		t.Errorf("Expected ascending order, got %d, %d", result[0].TimestampMs, result[1].TimestampMs)
	}

	other, err := store.GetBySymbol(ctx, "BTCUSDT", "5m")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected empty series for other interval, got %d", len(other))
	}
}

func TestCandleStore_DuplicateKey(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	candles := []domain.Candle{{TimestampMs: 1000, Close: 1}}
	if err := store.InsertBulk(ctx, "BTCUSDT", "1m", candles); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, "BTCUSDT", "1m", append(candles, domain.Candle{TimestampMs: 3000}))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Batch is rejected as a whole
	result, _ := store.GetBySymbol(ctx, "BTCUSDT", "1m")
	if len(result) != 1 {
		t.Errorf("Expected 1 candle after rejected batch, got %d", len(result))
	}

	err = store.InsertBulk(ctx, "ETHUSDT", "1m", []domain.Candle{{TimestampMs: 5}, {TimestampMs: 5}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}
}

func TestCandleStore_InvalidInput(t *testing.T) {
	store := NewCandleStore()
	err := store.InsertBulk(context.Background(), "", "1m", []domain.Candle{{TimestampMs: 1}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestCandleStore_GetByTimeRange(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	var candles []domain.Candle
	for ts := int64(1000); ts <= 5000; ts += 1000 {
		candles = append(candles, domain.Candle{TimestampMs: ts, Close: float64(ts)})
	}
	if err := store.InsertBulk(ctx, "BTCUSDT", "1m", candles); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "BTCUSDT", "1m", 2000, 4000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 candles (inclusive range), got %d", len(result))
	}
	if result[0].TimestampMs != 2000 || result[2].TimestampMs != 4000 {
		t.Errorf("Unexpected range bounds: %d..%d", result[0].TimestampMs, result[2].TimestampMs)
	}
}

func TestCandleStore_GetTimeRange(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	if _, _, err := store.GetTimeRange(ctx, "BTCUSDT", "1m"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for empty series, got %v", err)
	}

	candles := []domain.Candle{{TimestampMs: 3000}, {TimestampMs: 1000}, {TimestampMs: 2000}}
	if err := store.InsertBulk(ctx, "BTCUSDT", "1m", candles); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	minTs, maxTs, err := store.GetTimeRange(ctx, "BTCUSDT", "1m")
	if err != nil {
		t.Fatalf("GetTimeRange failed: %v", err)
	}
	if minTs != 1000 || maxTs != 3000 {
		t.Errorf("Expected 1000..3000, got %d..%d", minTs, maxTs)
	}
}
