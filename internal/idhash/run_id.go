package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"breakout-lab/internal/domain"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(symbol|config_id|first_candle_ms|last_candle_ms|candle_count)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(
	symbol string,
	cfg domain.StrategyConfig,
	firstCandleMs int64,
	lastCandleMs int64,
	candleCount int,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%d",
		symbol,
		ComputeConfigID(cfg),
		firstCandleMs,
		lastCandleMs,
		candleCount,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
