package time

import "math"

// Stats holds the time-domain measurements recorded for a fixture.
//
//nolint:revive
type Stats struct {
	Length         int
	DC             float64 // mean
	RMS            float64
	RMS_dB         float64 // dBFS-RMS, reference 1.0
	Peak           float64 // max |x|
	PeakPos        int
	Peak_dB        float64
	CrestFactor    float64 // peak / RMS (linear)
	CrestFactor_dB float64
	StdDev         float64 // population standard deviation
	ZeroCrossings  int
}

// ampTodB converts an amplitude value to decibels: 20 * log10(|value|).
// Returns -Inf for zero values.
func ampTodB(value float64) float64 {
	a := math.Abs(value)
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}

// Calculate computes all statistics in a single pass. Mean and variance use
// Welford's update for numerical stability on long fixtures.
func Calculate(signal []float64) Stats {
	n := len(signal)
	if n == 0 {
		return Stats{
			RMS_dB:         math.Inf(-1),
			Peak_dB:        math.Inf(-1),
			CrestFactor_dB: math.Inf(-1),
		}
	}

	var (
		mean, m2      float64
		sumSq         float64
		peak          float64
		peakPos       int
		zeroCrossings int
	)

	for i, x := range signal {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)

		sumSq += x * x

		if a := math.Abs(x); a > peak {
			peak = a
			peakPos = i
		}

		if i > 0 && signal[i-1]*x < 0 {
			zeroCrossings++
		}
	}

	nf := float64(n)
	rms := math.Sqrt(sumSq / nf)

	var crest, crestdB float64
	if rms > 0 {
		crest = peak / rms
		crestdB = ampTodB(crest)
	}

	return Stats{
		Length:         n,
		DC:             mean,
		RMS:            rms,
		RMS_dB:         ampTodB(rms),
		Peak:           peak,
		PeakPos:        peakPos,
		Peak_dB:        ampTodB(peak),
		CrestFactor:    crest,
		CrestFactor_dB: crestdB,
		StdDev:         math.Sqrt(m2 / nf),
		ZeroCrossings:  zeroCrossings,
	}
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// DC returns the mean (DC offset) of the signal.
func DC(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	// Kahan summation.
	var sum, c float64
	for _, x := range signal {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(signal))
}

// StdDev returns the population standard deviation (divisor n).
func StdDev(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var mean, m2 float64
	for i, x := range signal {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}

	return math.Sqrt(m2 / float64(len(signal)))
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	var peak float64
	for _, x := range signal {
		if a := math.Abs(x); a > peak {
			peak = a
		}
	}

	return peak
}

// ZeroCrossings returns the number of zero crossings in the signal.
// A crossing is counted when consecutive samples have opposite signs.
func ZeroCrossings(signal []float64) int {
	if len(signal) < 2 {
		return 0
	}

	var count int

	for i := 1; i < len(signal); i++ {
		if signal[i-1]*signal[i] < 0 {
			count++
		}
	}

	return count
}

// CrossingFrequency estimates the frequency of an oscillating segment from
// the spacing of its zero crossings. Crossing instants are refined by linear
// interpolation between the bracketing samples, so the estimate stays usable
// for chirps where the period changes within the segment. Returns 0 when
// fewer than two crossings are present.
func CrossingFrequency(segment []float64, sampleRate float64) float64 {
	first, last := -1.0, -1.0
	count := 0

	for i := 1; i < len(segment); i++ {
		a, b := segment[i-1], segment[i]
		if a*b >= 0 {
			continue
		}
		pos := float64(i-1) + a/(a-b)
		if first < 0 {
			first = pos
		}
		last = pos
		count++
	}

	if count < 2 || last <= first || sampleRate <= 0 {
		return 0
	}

	halfPeriods := float64(count - 1)
	return halfPeriods / 2 / ((last - first) / sampleRate)
}
