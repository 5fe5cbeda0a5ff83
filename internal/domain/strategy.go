package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a StrategyConfig fails validation.
var ErrInvalidConfig = errors.New("invalid strategy config")

// LeverageTier maps a distance-from-MA threshold to a leverage value.
// Tiers are evaluated in the order given; the last tier whose threshold
// is exceeded wins.
type LeverageTier struct {
	Threshold float64 `json:"threshold"` // |close - ma| / ma
	Leverage  float64 `json:"leverage"`
}

// StrategyConfig represents the immutable parameters of one simulation run.
type StrategyConfig struct {
	LongK            float64 `json:"longK"`          // buy target = close + range * LongK
	ShortK           float64 `json:"shortK"`         // sell target = close - range * ShortK
	StopLoss         float64 `json:"stoploss"`       // stop distance as fraction of entry
	MAWindowDays     int     `json:"maWindowDays"`   // moving average window over daily closes
	Leverage         float64 `json:"leverage"`       // default leverage
	FeeFraction      float64 `json:"fee"`            // per-side trading fee
	SlippageFraction float64 `json:"slippage"`       // per-side slippage
	EnableShorting   bool    `json:"enableShorting"` // allow short entries
	EnableMA         bool    `json:"enableMA"`       // gate entries on the moving average
	TradeEveryDay    bool    `json:"tradeEveryDay"`  // false: sit out the day after an overnight exit
	InitialBalance   float64 `json:"initialBalance"` // starting account balance

	// DistanceToLeverage overrides Leverage based on distance from the MA.
	DistanceToLeverage []LeverageTier `json:"distanceToLeverage,omitempty"`
}

// Default parameter values.
const (
	DefaultLongK          = 0.6
	DefaultShortK         = 0.6
	DefaultStopLoss       = 0.02
	DefaultMAWindowDays   = 5
	DefaultLeverage       = 1.0
	DefaultFee            = 0.0007
	DefaultSlippage       = 0.0004
	DefaultInitialBalance = 10000.0
)

// DefaultStrategyConfig returns the baseline research configuration.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		LongK:            DefaultLongK,
		ShortK:           DefaultShortK,
		StopLoss:         DefaultStopLoss,
		MAWindowDays:     DefaultMAWindowDays,
		Leverage:         DefaultLeverage,
		FeeFraction:      DefaultFee,
		SlippageFraction: DefaultSlippage,
		TradeEveryDay:    true,
		InitialBalance:   DefaultInitialBalance,
	}
}

// RoundTripCost returns the cost subtracted from every closed position's return.
func (c StrategyConfig) RoundTripCost() float64 {
	return 2 * (c.FeeFraction + c.SlippageFraction)
}

// Validate checks parameter bounds.
func (c StrategyConfig) Validate() error {
	if c.LongK <= 0 {
		return fmt.Errorf("%w: longK must be greater than 0", ErrInvalidConfig)
	}
	if c.ShortK <= 0 {
		return fmt.Errorf("%w: shortK must be greater than 0", ErrInvalidConfig)
	}
	if c.StopLoss <= 0 || c.StopLoss >= 1 {
		return fmt.Errorf("%w: stoploss must be in (0, 1)", ErrInvalidConfig)
	}
	if c.MAWindowDays <= 0 {
		return fmt.Errorf("%w: maWindowDays must be greater than 0", ErrInvalidConfig)
	}
	if c.Leverage < 1 {
		return fmt.Errorf("%w: leverage must be 1 or greater", ErrInvalidConfig)
	}
	if c.FeeFraction < 0 {
		return fmt.Errorf("%w: fee cannot be negative", ErrInvalidConfig)
	}
	if c.SlippageFraction < 0 {
		return fmt.Errorf("%w: slippage cannot be negative", ErrInvalidConfig)
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("%w: initialBalance must be greater than 0", ErrInvalidConfig)
	}
	for i, tier := range c.DistanceToLeverage {
		if tier.Threshold < 0 {
			return fmt.Errorf("%w: distanceToLeverage[%d] threshold cannot be negative", ErrInvalidConfig, i)
		}
		if tier.Leverage < 1 {
			return fmt.Errorf("%w: distanceToLeverage[%d] leverage must be 1 or greater", ErrInvalidConfig, i)
		}
	}
	return nil
}
