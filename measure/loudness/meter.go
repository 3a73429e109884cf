// Package loudness measures programme loudness per EBU R128 / ITU-R BS.1770.
//
// The campaign uses it to record the integrated loudness of every fixture,
// which lets an encoder test compare its own reading of, for example, the
// -23 LUFS reference tone against the level the file was rendered at.
package loudness

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-testsignals/dsp/core"
	"github.com/cwbudde/algo-testsignals/dsp/filter/biquad"
)

const (
	momentaryWindow = 0.4 // s
	shortTermWindow = 3.0 // s
	blockStep       = 0.1 // s, 75% overlap of momentary blocks

	absoluteGate = -70.0 // LUFS
	relativeGate = -10.0 // LU

	// Floor reports a zero mean square.
	Floor = -120.0
)

// Meter accumulates K-weighted power over interleaved frames.
type Meter struct {
	cfg     MeterConfig
	filters []*biquad.Chain

	mom, short window
	sinceStep  int
	step       int
	frames     int
	blocks     []float64
	peaks      []float64
}

// window is a per-channel sliding sum of squares.
type window struct {
	hist [][]float64
	sums []float64
	pos  int
	n    int
}

func newWindow(channels, n int) window {
	w := window{hist: make([][]float64, channels), sums: make([]float64, channels), n: n}
	for ch := range w.hist {
		w.hist[ch] = make([]float64, n)
	}
	return w
}

func (w *window) push(ch int, sq float64) {
	old := w.hist[ch][w.pos]
	w.hist[ch][w.pos] = sq
	w.sums[ch] += sq - old
	if w.sums[ch] < 0 {
		w.sums[ch] = 0
	}
}

func (w *window) advance() {
	w.pos = (w.pos + 1) % w.n
}

// meanSquare sums the channel mean squares with unity channel weights.
func (w *window) meanSquare() float64 {
	var sum float64
	for _, s := range w.sums {
		sum += s / float64(w.n)
	}
	return sum
}

func (w *window) reset() {
	for ch := range w.hist {
		clear(w.hist[ch])
		w.sums[ch] = 0
	}
	w.pos = 0
}

// NewMeter creates a meter.
func NewMeter(opts ...MeterOption) *Meter {
	cfg := ApplyMeterOptions(opts...)

	m := &Meter{
		cfg:     cfg,
		filters: make([]*biquad.Chain, cfg.Channels),
		mom:     newWindow(cfg.Channels, max(int(math.Round(momentaryWindow*cfg.SampleRate)), 1)),
		short:   newWindow(cfg.Channels, max(int(math.Round(shortTermWindow*cfg.SampleRate)), 1)),
		step:    max(int(math.Round(blockStep*cfg.SampleRate)), 1),
		peaks:   make([]float64, cfg.Channels),
	}
	for ch := range m.filters {
		m.filters[ch] = newKWeighting(cfg.SampleRate)
	}
	return m
}

// Reset clears all filter and integration state.
func (m *Meter) Reset() {
	for ch := range m.filters {
		m.filters[ch].Reset()
	}
	m.mom.reset()
	m.short.reset()
	clear(m.peaks)
	m.sinceStep = 0
	m.frames = 0
	m.blocks = nil
}

// ProcessFrame feeds one sample per channel. Short frames are ignored.
func (m *Meter) ProcessFrame(frame []float64) {
	if len(frame) < m.cfg.Channels {
		return
	}

	for ch := range m.cfg.Channels {
		x := frame[ch]
		if a := math.Abs(x); a > m.peaks[ch] {
			m.peaks[ch] = a
		}
		y := m.filters[ch].ProcessSample(x)
		sq := y * y
		m.mom.push(ch, sq)
		m.short.push(ch, sq)
	}
	m.mom.advance()
	m.short.advance()
	m.frames++

	// Gating blocks start once the first 400 ms window is full.
	m.sinceStep++
	if m.sinceStep >= m.step {
		m.sinceStep = 0
		if m.frames >= m.mom.n {
			m.blocks = append(m.blocks, m.mom.meanSquare())
		}
	}
}

// ProcessInterleaved feeds interleaved frames.
func (m *Meter) ProcessInterleaved(block []float64) {
	c := m.cfg.Channels
	for i := 0; i+c <= len(block); i += c {
		m.ProcessFrame(block[i : i+c])
	}
}

// Momentary returns the loudness of the last 400 ms in LUFS.
func (m *Meter) Momentary() float64 {
	return toLUFS(m.mom.meanSquare())
}

// ShortTerm returns the loudness of the last 3 s in LUFS.
func (m *Meter) ShortTerm() float64 {
	return toLUFS(m.short.meanSquare())
}

// Integrated returns the gated loudness over everything processed since
// Reset, or -Inf when no block passes the gates.
func (m *Meter) Integrated() float64 {
	var absSum float64
	var absN int
	for _, b := range m.blocks {
		if toLUFS(b) > absoluteGate {
			absSum += b
			absN++
		}
	}
	if absN == 0 {
		return math.Inf(-1)
	}

	gate := toLUFS(absSum/float64(absN)) + relativeGate

	var relSum float64
	var relN int
	for _, b := range m.blocks {
		if l := toLUFS(b); l > absoluteGate && l > gate {
			relSum += b
			relN++
		}
	}
	if relN == 0 {
		return math.Inf(-1)
	}
	return toLUFS(relSum / float64(relN))
}

// Peaks returns the sample peak of each channel.
func (m *Meter) Peaks() []float64 {
	return append([]float64(nil), m.peaks...)
}

// Integrated measures planar channels in one pass.
func Integrated(channels [][]float64, sampleRate float64) (float64, error) {
	if len(channels) == 0 || sampleRate <= 0 {
		return 0, fmt.Errorf("loudness: need channels and a positive sample rate: %w", core.ErrInvalidArgument)
	}
	n := len(channels[0])
	for _, ch := range channels[1:] {
		if len(ch) != n {
			return 0, fmt.Errorf("loudness: channel lengths differ: %w", core.ErrInvalidArgument)
		}
	}

	m := NewMeter(WithSampleRate(sampleRate), WithChannels(len(channels)))
	frame := make([]float64, len(channels))
	for i := range n {
		for ch := range channels {
			frame[ch] = channels[ch][i]
		}
		m.ProcessFrame(frame)
	}
	return m.Integrated(), nil
}

func toLUFS(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return Floor
	}
	return -0.691 + 10*math.Log10(meanSquare)
}
