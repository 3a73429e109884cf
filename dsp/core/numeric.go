package core

import "math"

// Clamp limits value to [lo, hi]. Swapped bounds are reordered; NaN passes
// through.
func Clamp(value, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, value))
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
// With a reference of 1.0 this is the dBFS-RMS target used by level
// normalization.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}
