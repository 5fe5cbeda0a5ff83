package metrics

import "math"

// PeriodsPerYear is the number of daily steps compounded into a year.
// Crypto markets trade every calendar day.
const PeriodsPerYear = 365

// StepReturns converts a value series into per-step returns:
// r[i-1] = (v[i] - v[i-1]) / v[i-1].
// Returns nil for series shorter than 2.
// A zero previous value yields a zero step so a wiped-out account cannot
// produce Inf/NaN downstream.
func StepReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		returns[i-1] = (values[i] - prev) / prev
	}
	return returns
}

// EquityCurve compounds returns into a curve that starts at 1.
// The curve has len(returns)+1 points.
func EquityCurve(returns []float64) []float64 {
	curve := make([]float64, len(returns)+1)
	curve[0] = 1
	for i, r := range returns {
		curve[i+1] = curve[i] * (1 + r)
	}
	return curve
}

// MaxDrawdown calculates the worst peak-to-trough decline of the compounded
// equity curve, as a negative fraction (0 when the curve never declines).
// max_drawdown = MIN((curve[t] - runningMax[t]) / runningMax[t])
// Returns must be in chronological order.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return DrawdownOfCurve(EquityCurve(returns))
}

// DrawdownOfCurve is MaxDrawdown over raw values instead of returns.
// Used for the running drawdown of a balance series.
func DrawdownOfCurve(curve []float64) float64 {
	if len(curve) < 2 {
		return 0
	}
	peak := curve[0]
	maxDrawdown := 0.0
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		drawdown := (v - peak) / peak
		if drawdown < maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// TotalReturn calculates last/first - 1 on the raw series.
// Returns 0 for series shorter than 2 or a non-positive first value.
func TotalReturn(values []float64) float64 {
	if len(values) < 2 || values[0] <= 0 {
		return 0
	}
	return values[len(values)-1]/values[0] - 1
}

// AnnualizedReturn compounds the mean step return over a 365-step year:
// (1 + mean)^365 - 1.
func AnnualizedReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return math.Pow(1+Mean(returns), PeriodsPerYear) - 1
}

// GeometricAnnualized scales a realized total return earned over steps daily
// steps to a year: (1 + total)^(365/steps) - 1. A series of N values spans
// N-1 steps.
func GeometricAnnualized(total float64, steps int) float64 {
	if steps <= 0 || total <= -1 {
		return 0
	}
	return math.Pow(1+total, float64(PeriodsPerYear)/float64(steps)) - 1
}

// Mean calculates the arithmetic mean.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Stddev calculates sample standard deviation (n-1 denominator).
func Stddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// Sharpe calculates mean / stddev * sqrt(365) with a zero risk-free rate.
// Returns 0 when the series has no dispersion.
func Sharpe(returns []float64) float64 {
	sd := Stddev(returns)
	if sd == 0 {
		return 0
	}
	return Mean(returns) / sd * math.Sqrt(PeriodsPerYear)
}

// WinRate calculates wins / total.
func WinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// Percentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
