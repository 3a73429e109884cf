package signal

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-testsignals/dsp/core"
	timestats "github.com/cwbudde/algo-testsignals/stats/time"
)

// ApplyEnvelope fades w in over round(attack*sampleRate) samples and out
// over round(release*sampleRate) samples and returns the result.
//
// The ramps are linspace(0, 1, n) and linspace(1, 0, n). The release ramp is
// written after the attack ramp, so where the two overlap the release wins.
// A ramp longer than w is cut: the attack keeps its first samples, the
// release its last. A zero time leaves that side untouched.
func (g *Generator) ApplyEnvelope(w []float64, attack, release float64) ([]float64, error) {
	if err := validateSeconds("attack", attack); err != nil {
		return nil, err
	}
	if err := validateSeconds("release", release); err != nil {
		return nil, err
	}

	out := make([]float64, len(w))
	if len(w) == 0 {
		return out, nil
	}

	env := make([]float64, len(w))
	for i := range env {
		env[i] = 1
	}

	// Counts stay in float64 so a ramp far longer than w cannot overflow int.
	if na := math.Round(attack * g.rate); na > 0 {
		for i := 0; i < len(env) && float64(i) < na; i++ {
			env[i] = rampValue(float64(i), na)
		}
	}

	if nr := math.Min(math.Round(release*g.rate), math.MaxFloat64); nr > 0 {
		start := float64(len(env)) - nr
		for idx := int(math.Max(start, 0)); idx < len(env); idx++ {
			env[idx] = 1 - rampValue(float64(idx)-start, nr)
		}
	}

	vecmath.MulBlock(out, w, env)
	return out, nil
}

// rampValue returns element i of linspace(0, 1, n).
func rampValue(i, n float64) float64 {
	if n <= 1 {
		return 0
	}
	return i / (n - 1)
}

// NormalizeToDB scales w so its RMS equals 10^(targetDB/20), a dBFS-RMS
// target against a reference RMS of 1.0. Silence is returned unchanged.
func NormalizeToDB(w []float64, targetDB float64) []float64 {
	out := make([]float64, len(w))
	copy(out, w)

	rms := timestats.RMS(w)
	if rms == 0 {
		return out
	}

	scale := core.DBToLinear(targetDB) / rms
	for i := range out {
		out[i] *= scale
	}
	return out
}

// NormalizeToDB is the method form of the package-level NormalizeToDB.
func (g *Generator) NormalizeToDB(w []float64, targetDB float64) []float64 {
	return NormalizeToDB(w, targetDB)
}
