package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"breakout-lab/internal/domain"
)

// ComputeConfigID computes a deterministic config fingerprint using SHA256.
// Formula: SHA256(long_k|short_k|stoploss|ma_window|leverage|fee|slippage|
// shorting|ma|every_day|initial_balance|tier;tier;...)
// with each tier written as threshold:leverage in the order given.
// Returns hex-encoded hash (64 characters).
func ComputeConfigID(cfg domain.StrategyConfig) string {
	hash := sha256.Sum256([]byte(canonicalConfig(cfg)))
	return hex.EncodeToString(hash[:])
}

func canonicalConfig(cfg domain.StrategyConfig) string {
	tiers := make([]string, len(cfg.DistanceToLeverage))
	for i, t := range cfg.DistanceToLeverage {
		tiers[i] = formatFloat(t.Threshold) + ":" + formatFloat(t.Leverage)
	}

	return strings.Join([]string{
		formatFloat(cfg.LongK),
		formatFloat(cfg.ShortK),
		formatFloat(cfg.StopLoss),
		strconv.Itoa(cfg.MAWindowDays),
		formatFloat(cfg.Leverage),
		formatFloat(cfg.FeeFraction),
		formatFloat(cfg.SlippageFraction),
		strconv.FormatBool(cfg.EnableShorting),
		strconv.FormatBool(cfg.EnableMA),
		strconv.FormatBool(cfg.TradeEveryDay),
		formatFloat(cfg.InitialBalance),
		strings.Join(tiers, ";"),
	}, "|")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
