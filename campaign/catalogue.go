package campaign

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-testsignals/dsp/core"
	"github.com/cwbudde/algo-testsignals/dsp/signal"
)

// Suite durations in seconds.
const (
	ComplianceDuration = 5.0
	QualityDuration    = 10.0
	StereoDuration     = 5.0
	StressDuration     = 30.0
	LongSineDuration   = 120.0
)

// Envelope times in seconds.
const (
	shortFade = 0.1
	sweepFade = 0.5
	longFade  = 1.0
)

// DynamicRangeLevels are the dBFS-RMS levels of the dynamic range tones.
var DynamicRangeLevels = []int{-60, -40, -20, -12, -6, -3}

// FrequencyResponseHz are the tone frequencies of the quality suite. Tones
// at or above Nyquist are skipped for the rate being rendered.
var FrequencyResponseHz = []int{100, 200, 500, 1000, 2000, 5000, 10000, 15000, 20000}

// waveform renders one channel.
type waveform func(g *signal.Generator) ([]float64, error)

// fixture is one catalogue entry. render returns one slice per channel.
type fixture struct {
	name        string
	duration    float64 // zero means the suite duration
	normalize   bool
	fundamental float64 // Hz; non-zero records THD and peak frequency in the inventory
	noise       bool    // records the spectral tilt in the inventory
	render      func(g *signal.Generator) ([][]float64, error)
}

type suiteSpec struct {
	duration float64
	fixtures func(sampleRate int) []fixture
}

// durationOf returns the unscaled length of fx in seconds.
func (d suiteSpec) durationOf(fx fixture) float64 {
	if fx.duration > 0 {
		return fx.duration
	}
	return d.duration
}

func specFor(s Suite) (suiteSpec, bool) {
	switch s {
	case Compliance:
		return suiteSpec{ComplianceDuration, complianceFixtures}, true
	case Quality:
		return suiteSpec{QualityDuration, qualityFixtures}, true
	case Stereo:
		return suiteSpec{StereoDuration, stereoFixtures}, true
	case Stress:
		return suiteSpec{StressDuration, stressFixtures}, true
	default:
		return suiteSpec{}, false
	}
}

// Compliance fixtures are level-calibrated and written without peak
// normalization so the calibrated level survives.
func complianceFixtures(int) []fixture {
	level := func(name string, w waveform, db, fundamental float64) fixture {
		return fixture{name: name, fundamental: fundamental, render: mono(faded(atLevel(w, db), shortFade))}
	}

	fx := []fixture{
		level("itu_r_bs1196_1khz_sine_-20db", sine(1000, 1, 0), -20, 1000),
		level("itu_r_bs1196_multi_tone_-12db",
			multiTone([]float64{440, 1000, 3000, 8000}, []float64{0.25, 0.25, 0.25, 0.25}), -12, 0),
		level("ebu_r128_reference_-23lufs", sine(1000, 1, 0), -23, 1000),
	}
	for _, db := range DynamicRangeLevels {
		fx = append(fx, level(fmt.Sprintf("dynamic_range_%+03ddb", db), sine(1000, 1, 0), float64(db), 1000))
	}
	return fx
}

func qualityFixtures(sampleRate int) []fixture {
	var fx []fixture
	for _, hz := range FrequencyResponseHz {
		if float64(hz) >= float64(sampleRate)/2 {
			continue
		}
		fx = append(fx, fixture{
			name:        fmt.Sprintf("freq_response_%05dhz", hz),
			normalize:   true,
			fundamental: float64(hz),
			render:      mono(faded(sine(float64(hz), 0.5, 0), shortFade)),
		})
	}

	sweepEnd := math.Min(20000, float64(sampleRate/2-1000))
	harmonics := []float64{0.5, 0.3, 0.2, 0.1}

	return append(fx,
		fixture{
			name:      "frequency_sweep_20hz_20khz",
			normalize: true,
			render: mono(faded(func(g *signal.Generator) ([]float64, error) {
				return g.FrequencySweep(20, sweepEnd, 0.3, signal.SweepLogarithmic)
			}, sweepFade)),
		},
		fixture{
			name:        "complex_harmonic_a4",
			normalize:   true,
			fundamental: 440,
			render:      mono(faded(complexTone(440, harmonics, 0.4), shortFade)),
		},
		fixture{
			name:      "white_noise",
			normalize: true,
			noise:     true,
			render: mono(func(g *signal.Generator) ([]float64, error) {
				return g.WhiteNoise(signal.DefaultNoiseAmplitude)
			}),
		},
		fixture{
			name:      "pink_noise",
			normalize: true,
			noise:     true,
			render: mono(func(g *signal.Generator) ([]float64, error) {
				return g.PinkNoise(signal.DefaultNoiseAmplitude)
			}),
		},
	)
}

func stereoFixtures(int) []fixture {
	harmonics := []float64{0.3, 0.2, 0.1}
	center := faded(sine(1000, 0.5, 0), shortFade)

	return []fixture{
		{
			name:      "stereo_center",
			normalize: true,
			render: func(g *signal.Generator) ([][]float64, error) {
				w, err := center(g)
				if err != nil {
					return nil, err
				}
				return [][]float64{w, w}, nil
			},
		},
		{
			name:      "stereo_left_only",
			normalize: true,
			render:    stereo(faded(sine(440, 0.7, 0), shortFade), silence),
		},
		{
			name:      "stereo_right_only",
			normalize: true,
			render:    stereo(silence, faded(sine(880, 0.7, 0), shortFade)),
		},
		{
			name:      "stereo_out_of_phase",
			normalize: true,
			render:    stereo(center, faded(sine(1000, 0.5, math.Pi), shortFade)),
		},
		{
			name:      "stereo_complex_lr",
			normalize: true,
			render: stereo(
				faded(complexTone(440, harmonics, 0.4), shortFade),
				faded(complexTone(880, harmonics, 0.4), shortFade),
			),
		},
	}
}

func stressFixtures(int) []fixture {
	return []fixture{
		{
			name:      "rapid_content_changes",
			normalize: true,
			render: mono(func(g *signal.Generator) ([]float64, error) {
				return g.RapidContentChanges(signal.DefaultSegment)
			}),
		},
		{
			name:      "impulse_train_10hz",
			normalize: true,
			render: mono(func(g *signal.Generator) ([]float64, error) {
				return g.ImpulseTrain(0.1, signal.DefaultImpulseAmplitude)
			}),
		},
		{
			name:        "long_sine_2min",
			duration:    LongSineDuration,
			normalize:   true,
			fundamental: 1000,
			render:      mono(faded(sine(1000, 0.5, 0), longFade)),
		},
	}
}

func sine(hz, amplitude, phase float64) waveform {
	return func(g *signal.Generator) ([]float64, error) {
		return g.Sine(hz, amplitude, phase)
	}
}

func multiTone(freqs, amps []float64) waveform {
	return func(g *signal.Generator) ([]float64, error) {
		return g.MultiTone(freqs, amps)
	}
}

func complexTone(fundamental float64, harmonics []float64, amplitude float64) waveform {
	return func(g *signal.Generator) ([]float64, error) {
		return g.ComplexTone(fundamental, harmonics, amplitude)
	}
}

func silence(g *signal.Generator) ([]float64, error) {
	return g.Silence(), nil
}

func atLevel(w waveform, db float64) waveform {
	return func(g *signal.Generator) ([]float64, error) {
		x, err := w(g)
		if err != nil {
			return nil, err
		}
		return g.NormalizeToDB(x, db), nil
	}
}

// faded applies equal attack and release times.
func faded(w waveform, seconds float64) waveform {
	return func(g *signal.Generator) ([]float64, error) {
		x, err := w(g)
		if err != nil {
			return nil, err
		}
		return g.ApplyEnvelope(x, seconds, seconds)
	}
}

func mono(w waveform) func(*signal.Generator) ([][]float64, error) {
	return func(g *signal.Generator) ([][]float64, error) {
		x, err := w(g)
		if err != nil {
			return nil, err
		}
		return [][]float64{x}, nil
	}
}

func stereo(left, right waveform) func(*signal.Generator) ([][]float64, error) {
	return func(g *signal.Generator) ([][]float64, error) {
		l, err := left(g)
		if err != nil {
			return nil, err
		}
		r, err := right(g)
		if err != nil {
			return nil, err
		}
		return [][]float64{l, r}, nil
	}
}

// FixtureInfo describes one file of a suite before any duration scaling.
type FixtureInfo struct {
	Name     string  // without extension
	Duration float64 // seconds
}

// Fixtures lists the files s renders at sampleRate with their own durations.
func Fixtures(s Suite, sampleRate int) ([]FixtureInfo, error) {
	def, ok := specFor(s)
	if !ok {
		return nil, fmt.Errorf("campaign: unknown suite %q: %w", s, core.ErrInvalidArgument)
	}
	fx := def.fixtures(sampleRate)
	out := make([]FixtureInfo, len(fx))
	for i, f := range fx {
		out[i] = FixtureInfo{Name: f.name, Duration: def.durationOf(f)}
	}
	return out, nil
}

// FixtureNames lists the files s renders at sampleRate, without extension.
func FixtureNames(s Suite, sampleRate int) ([]string, error) {
	fx, err := Fixtures(s, sampleRate)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(fx))
	for i, f := range fx {
		out[i] = f.Name
	}
	return out, nil
}
