package signal

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-testsignals/dsp/spectrum"
	timestats "github.com/cwbudde/algo-testsignals/stats/time"
)

// pinkDCEpsilon stands in for the 0 Hz bin frequency before its gain is
// zeroed.
const pinkDCEpsilon = 1e-10

// WhiteNoise returns amplitude-scaled draws from a zero-mean, unit-variance
// Gaussian. Each call advances the generator's source.
func (g *Generator) WhiteNoise(amplitude float64) ([]float64, error) {
	out := make([]float64, g.n)
	for i := range out {
		out[i] = amplitude * g.rng.NormFloat64()
	}
	return out, nil
}

// PinkNoise returns noise with a 1/f power spectrum whose population
// standard deviation equals amplitude.
//
// White Gaussian noise is shaped over the full fixture length with a
// 1/sqrt(|f|) magnitude filter; the DC bin is removed.
func (g *Generator) PinkNoise(amplitude float64) ([]float64, error) {
	tr, err := spectrum.NewTransform(g.n)
	if err != nil {
		return nil, fmt.Errorf("signal: pink noise: %w", err)
	}

	bins := make([]complex128, g.n)
	for i := range bins {
		bins[i] = complex(g.rng.NormFloat64(), 0)
	}
	if err := tr.Forward(bins, bins); err != nil {
		return nil, fmt.Errorf("signal: pink noise: %w", err)
	}

	for k := range bins {
		f := spectrum.BinFrequency(k, g.n, g.rate)
		if k == 0 {
			f = pinkDCEpsilon
		}
		gain := 1 / math.Sqrt(f)
		if k == 0 {
			gain = 0
		}
		bins[k] *= complex(gain, 0)
	}

	if err := tr.Inverse(bins, bins); err != nil {
		return nil, fmt.Errorf("signal: pink noise: %w", err)
	}

	out := make([]float64, g.n)
	for i, v := range bins {
		out[i] = real(v)
	}

	std := timestats.StdDev(out)
	if std == 0 {
		return out, nil
	}
	scale := amplitude / std
	for i := range out {
		out[i] *= scale
	}
	return out, nil
}
