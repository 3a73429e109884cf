// Package window generates analysis windows for the measurement packages.
package window

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-testsignals/dsp/core"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeBlackmanHarris4Term
)

func (t Type) String() string {
	switch t {
	case TypeRectangular:
		return "rectangular"
	case TypeHann:
		return "hann"
	case TypeBlackmanHarris4Term:
		return "blackman-harris-4t"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

var (
	hannCoeffs            = []float64{0.5, -0.5}
	blackmanHarris4Coeffs = []float64{0.35875, -0.48829, 0.14128, -0.01168}
)

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic generates the periodic (DFT-even) form, which spans the
// length as one full period.
func WithPeriodic() Option {
	return func(cfg *config) {
		cfg.periodic = true
	}
}

// Generate returns length coefficients of window t. Unknown types and
// non-positive lengths give nil.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}
	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var coeffs []float64
	switch t {
	case TypeRectangular:
	case TypeHann:
		coeffs = hannCoeffs
	case TypeBlackmanHarris4Term:
		coeffs = blackmanHarris4Coeffs
	default:
		return nil
	}

	out := make([]float64, length)
	for i := range out {
		if coeffs == nil {
			out[i] = 1
			continue
		}
		out[i] = cosineFromCoeffs(samplePosition(i, length, cfg.periodic), coeffs)
	}
	return out
}

// Apply multiplies buf by window t in place and returns the coefficients.
func Apply(t Type, buf []float64, opts ...Option) ([]float64, error) {
	coeffs := Generate(t, len(buf), opts...)
	if coeffs == nil {
		return nil, fmt.Errorf("window: cannot generate %v of length %d: %w", t, len(buf), core.ErrInvalidArgument)
	}
	vecmath.MulBlockInPlace(buf, coeffs)
	return coeffs, nil
}

// Energy returns sum(w[n]^2).
func Energy(coeffs []float64) float64 {
	var sum float64
	for _, c := range coeffs {
		sum += c * c
	}
	return sum
}

// CoherentGain returns sum(w[n]) / N, the window's DC response.
func CoherentGain(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	return sum / float64(len(coeffs))
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}
	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}
	return float64(n) / den
}
