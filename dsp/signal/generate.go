package signal

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-testsignals/dsp/core"
)

// Default amplitudes and modulation depths of the fixture catalogue.
const (
	DefaultToneAmplitude    = 0.5
	DefaultNoiseAmplitude   = 0.1
	DefaultImpulseAmplitude = 0.8
	DefaultWarbleDepth      = 0.1
	DefaultAMDepth          = 0.5
)

const seedStream = 0x9e3779b97f4a7c15

// Generator synthesizes waveforms of a fixed length on a fixed time axis.
//
// Every synthesis call is a pure function of the time axis and its
// arguments, except the noise generators which draw from the generator's
// own pseudorandom source. A Generator must not be shared between
// goroutines that draw noise; give each goroutine its own instance.
type Generator struct {
	cfg  core.SamplingConfig
	n    int
	rate float64
	t    []float64
	rng  *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes noise generation reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^seedStream))
	}
}

// WithRand hands the generator an externally owned source.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) {
		if rng != nil {
			g.rng = rng
		}
	}
}

// New creates a generator for cfg and derives its time axis.
func New(cfg core.SamplingConfig, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("signal: sampling config: %w", err)
	}

	n := cfg.SampleCount()
	rate := float64(cfg.SampleRate)
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) / rate
	}

	g := &Generator{cfg: cfg, n: n, rate: rate, t: t}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g, nil
}

// Config returns the sampling configuration.
func (g *Generator) Config() core.SamplingConfig {
	return g.cfg
}

// SampleCount returns the length of every generated waveform.
func (g *Generator) SampleCount() int {
	return g.n
}

// Time returns a copy of the time axis in seconds.
func (g *Generator) Time() []float64 {
	out := make([]float64, g.n)
	copy(out, g.t)
	return out
}

// Silence returns an all-zero waveform.
func (g *Generator) Silence() []float64 {
	return make([]float64, g.n)
}

// Sine returns amplitude*sin(2π*freqHz*t + phase).
func (g *Generator) Sine(freqHz, amplitude, phase float64) ([]float64, error) {
	if err := validateFrequency("sine frequency", freqHz); err != nil {
		return nil, err
	}
	out := make([]float64, g.n)
	g.addSine(out, freqHz, amplitude, phase)
	return out, nil
}

func (g *Generator) addSine(dst []float64, freqHz, amplitude, phase float64) {
	w := 2 * math.Pi * freqHz
	for i, t := range g.t {
		dst[i] += amplitude * math.Sin(w*t+phase)
	}
}

// MultiTone sums one sine per (frequency, amplitude) pair. Empty lists give
// silence.
func (g *Generator) MultiTone(freqs, amps []float64) ([]float64, error) {
	if len(freqs) != len(amps) {
		return nil, invalidf("multitone needs one amplitude per frequency: %d frequencies, %d amplitudes", len(freqs), len(amps))
	}
	for _, f := range freqs {
		if err := validateFrequency("multitone frequency", f); err != nil {
			return nil, err
		}
	}

	out := make([]float64, g.n)
	for i, f := range freqs {
		g.addSine(out, f, amps[i], 0)
	}
	return out, nil
}

// AmplitudeModulated returns
// amplitude*sin(2π*carrier*t)*(1 + depth*sin(2π*modFreq*t)).
func (g *Generator) AmplitudeModulated(carrierHz, modHz, depth, amplitude float64) ([]float64, error) {
	if err := validateFrequency("carrier frequency", carrierHz); err != nil {
		return nil, err
	}
	if err := validateFrequency("modulation frequency", modHz); err != nil {
		return nil, err
	}

	out := make([]float64, g.n)
	wc := 2 * math.Pi * carrierHz
	wm := 2 * math.Pi * modHz
	for i, t := range g.t {
		out[i] = amplitude * math.Sin(wc*t) * (1 + depth*math.Sin(wm*t))
	}
	return out, nil
}

// WarbleTone returns a frequency-modulated sine whose instantaneous
// frequency is carrier + carrier*depth*sin(2π*modFreq*t).
//
// The phase is the running sum of the instantaneous frequency times
// 2π/sampleRate, a discrete integral whose accuracy is bounded by the sample
// rate. Unlike FrequencySweep there is no closed form here.
func (g *Generator) WarbleTone(carrierHz, modHz, depth, amplitude float64) ([]float64, error) {
	if err := validateFrequency("carrier frequency", carrierHz); err != nil {
		return nil, err
	}
	if err := validateFrequency("modulation frequency", modHz); err != nil {
		return nil, err
	}

	out := make([]float64, g.n)
	deviation := carrierHz * depth
	wm := 2 * math.Pi * modHz
	step := 2 * math.Pi / g.rate

	var acc float64
	for i, t := range g.t {
		acc += carrierHz + deviation*math.Sin(wm*t)
		out[i] = amplitude * math.Sin(step*acc)
	}
	return out, nil
}

// ComplexTone returns a fundamental at amplitude plus harmonic i (0-based)
// at fundamental*(i+2) with amplitude*harmonics[i]. Harmonics at or above
// Nyquist are left out.
func (g *Generator) ComplexTone(fundamentalHz float64, harmonics []float64, amplitude float64) ([]float64, error) {
	if err := validateFrequency("fundamental", fundamentalHz); err != nil {
		return nil, err
	}

	out := make([]float64, g.n)
	g.addSine(out, fundamentalHz, amplitude, 0)

	nyquist := g.cfg.Nyquist()
	for i, h := range harmonics {
		f := fundamentalHz * float64(i+2)
		if f >= nyquist {
			continue
		}
		g.addSine(out, f, amplitude*h, 0)
	}
	return out, nil
}

// ImpulseTrain places amplitude at every round(interval*sampleRate)
// samples, starting at index 0. An interval at least as long as the
// waveform leaves the single impulse at index 0.
func (g *Generator) ImpulseTrain(interval, amplitude float64) ([]float64, error) {
	if interval <= 0 || math.IsNaN(interval) || math.IsInf(interval, 0) {
		return nil, invalidf("impulse interval must be > 0 and finite: %v", interval)
	}
	step := g.sampleSpan(interval)
	if step <= 0 {
		return nil, invalidf("impulse interval %v is shorter than one sample at %d Hz", interval, g.cfg.SampleRate)
	}

	out := make([]float64, g.n)
	for i := 0; i < g.n; i += step {
		out[i] = amplitude
	}
	return out, nil
}

// sampleSpan converts seconds to round(seconds*sampleRate) samples, capped at
// the waveform length so that very long spans cannot overflow int.
func (g *Generator) sampleSpan(seconds float64) int {
	n := math.Round(seconds * g.rate)
	if n >= float64(g.n) {
		return g.n
	}
	return int(n)
}
