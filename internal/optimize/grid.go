// Package optimize searches breakout parameters over a candle feed.
package optimize

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Search errors.
var (
	ErrInvalidRange     = errors.New("invalid parameter range")
	ErrUnknownObjective = errors.New("unknown objective")
)

// Range is an inclusive grid [Min, Max] walked in Step increments.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// Values expands the range. Steps are accumulated in decimal so that the
// grid holds the exact values a user typed, e.g. 0.3 rather than
// 0.30000000000000004.
func (r Range) Values() ([]float64, error) {
	if r.Step <= 0 || r.Min > r.Max {
		return nil, fmt.Errorf("%w: [%v, %v] step %v", ErrInvalidRange, r.Min, r.Max, r.Step)
	}

	lo := decimal.NewFromFloat(r.Min)
	hi := decimal.NewFromFloat(r.Max)
	step := decimal.NewFromFloat(r.Step)

	var out []float64
	for v := lo; v.LessThanOrEqual(hi); v = v.Add(step) {
		f, _ := v.Float64()
		out = append(out, f)
	}
	return out, nil
}

// Space is the searched parameter grid. K applies to both the long and the
// short breakout.
type Space struct {
	K        Range `json:"k"`
	StopLoss Range `json:"stoploss"`
}

// DefaultSpace covers K in [0.1, 1] and stop loss in [0.5%, 10%].
func DefaultSpace() Space {
	return Space{
		K:        Range{Min: 0.1, Max: 1, Step: 0.05},
		StopLoss: Range{Min: 0.005, Max: 0.1, Step: 0.005},
	}
}

// Point is one grid coordinate.
type Point struct {
	K        float64
	StopLoss float64
}

// Points expands the space in K-major order.
func (s Space) Points() ([]Point, error) {
	ks, err := s.K.Values()
	if err != nil {
		return nil, fmt.Errorf("k: %w", err)
	}
	stops, err := s.StopLoss.Values()
	if err != nil {
		return nil, fmt.Errorf("stoploss: %w", err)
	}

	points := make([]Point, 0, len(ks)*len(stops))
	for _, k := range ks {
		for _, sl := range stops {
			points = append(points, Point{K: k, StopLoss: sl})
		}
	}
	return points, nil
}
