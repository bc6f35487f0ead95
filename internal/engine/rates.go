package engine

import "math"

// #region rates

// Rates holds a sample's answer rates against its effective denominator.
type Rates struct {
	Blank   float64
	Wrong   float64
	Correct float64
}

// SampleRates computes blank/wrong/correct rates for a sample using the
// defensive denominator.
func SampleRates(s PerformanceSample) Rates {
	n := float64(s.EffectiveTotal())
	return Rates{
		Blank:   float64(s.Blank) / n,
		Wrong:   float64(s.Wrong) / n,
		Correct: float64(s.Correct) / n,
	}
}

// #endregion rates

// #region clamp

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 restricts v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// #endregion clamp

// #region weighted-sum

// WeightedTerm is one (weight, value) pair of a weighted score.
type WeightedTerm struct {
	Weight float64
	Value  float64
}

// WeightedSum accumulates weight*value over all terms.
func WeightedSum(terms []WeightedTerm) float64 {
	var sum float64
	for _, t := range terms {
		sum += t.Weight * t.Value
	}
	return sum
}

// #endregion weighted-sum

// #region stddev

// StdDev computes the population standard deviation of vals.
// Returns 0 for fewer than 2 values.
func StdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	var variance float64
	for _, v := range vals {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(vals)))
}

// Mean returns the arithmetic mean of vals, or 0 when empty.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// #endregion stddev

// #region minmax

// MinMaxNormalize maps vals onto [0, 100] by min-max scaling.
// A uniform batch (max == min) maps every value to 50.
func MinMaxNormalize(vals []float64) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	for i, v := range vals {
		if span == 0 {
			out[i] = 50
			continue
		}
		out[i] = 100 * (v - lo) / span
	}
	return out
}

// #endregion minmax
