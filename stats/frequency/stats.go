package frequency

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-testsignals/dsp/core"
	"github.com/cwbudde/algo-testsignals/dsp/spectrum"
	"github.com/cwbudde/algo-testsignals/dsp/window"
)

var (
	errEmptySignal   = fmt.Errorf("frequency: signal must not be empty: %w", core.ErrInvalidArgument)
	errBadSampleRate = fmt.Errorf("frequency: sample rate must be > 0: %w", core.ErrInvalidArgument)
	errBandRange     = fmt.Errorf("frequency: band range must satisfy 0 < low < high <= nyquist: %w", core.ErrInvalidArgument)
)

// Band is one octave band of a power spectrum.
type Band struct {
	Center   float64 // Hz
	PowerDB  float64 // mean per-bin power in dB
	BinCount int
}

// Tilt describes the spectral slope of a signal.
type Tilt struct {
	SlopeDBPerOctave float64
	Bands            []Band
}

// OctaveBands averages the per-bin power of signal in octave bands whose
// centres start at low and double while they stay at or below high. Bands
// that contain no DFT bin are dropped.
func OctaveBands(signal []float64, sampleRate, low, high float64) ([]Band, error) {
	if len(signal) == 0 {
		return nil, errEmptySignal
	}
	if sampleRate <= 0 {
		return nil, errBadSampleRate
	}
	if low <= 0 || high <= low || high > sampleRate/2 {
		return nil, fmt.Errorf("%w: low=%v high=%v", errBandRange, low, high)
	}

	bins, err := spectrum.DFT(signal)
	if err != nil {
		return nil, err
	}

	n := len(signal)
	power := spectrum.Power(bins[:n/2+1])

	var bands []Band
	for fc := low; fc <= high; fc *= 2 {
		lo, hi := fc/math.Sqrt2, fc*math.Sqrt2

		var sum float64
		count := 0
		for k := 1; k < len(power); k++ {
			f := spectrum.BinFrequency(k, n, sampleRate)
			if f >= lo && f < hi {
				sum += power[k]
				count++
			}
		}
		if count == 0 {
			continue
		}

		bands = append(bands, Band{
			Center:   fc,
			PowerDB:  powerTodB(sum / float64(count)),
			BinCount: count,
		})
	}

	return bands, nil
}

// SpectralTilt fits a line through the octave-band levels of signal against
// log2(frequency). White noise gives about 0 dB/octave, pink noise about -3.
func SpectralTilt(signal []float64, sampleRate, low, high float64) (Tilt, error) {
	bands, err := OctaveBands(signal, sampleRate, low, high)
	if err != nil {
		return Tilt{}, err
	}
	if len(bands) < 2 {
		return Tilt{}, fmt.Errorf("%w: need at least two populated bands, got %d", errBandRange, len(bands))
	}

	var sx, sy, sxx, sxy float64
	for _, b := range bands {
		x := math.Log2(b.Center)
		sx += x
		sy += b.PowerDB
		sxx += x * x
		sxy += x * b.PowerDB
	}

	nf := float64(len(bands))
	slope := (nf*sxy - sx*sy) / (nf*sxx - sx*sx)

	return Tilt{SlopeDBPerOctave: slope, Bands: bands}, nil
}

// PeakFrequency returns the frequency of the strongest non-DC bin of the
// Hann-windowed spectrum, refined by parabolic interpolation of the
// magnitudes.
func PeakFrequency(signal []float64, sampleRate float64) (float64, error) {
	if len(signal) < 2 {
		return 0, errEmptySignal
	}
	if sampleRate <= 0 {
		return 0, errBadSampleRate
	}

	x := append([]float64(nil), signal...)
	if _, err := window.Apply(window.TypeHann, x, window.WithPeriodic()); err != nil {
		return 0, err
	}
	bins, err := spectrum.DFT(x)
	if err != nil {
		return 0, err
	}

	n := len(signal)
	mag := spectrum.Magnitude(bins[:n/2+1])

	best := 1
	for k := 2; k < len(mag); k++ {
		if mag[k] > mag[best] {
			best = k
		}
	}

	offset := 0.0
	if best > 0 && best < len(mag)-1 {
		a, b, c := mag[best-1], mag[best], mag[best+1]
		if den := a - 2*b + c; den != 0 {
			offset = 0.5 * (a - c) / den
		}
	}

	return (float64(best) + offset) * sampleRate / float64(n), nil
}

func powerTodB(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(p)
}
