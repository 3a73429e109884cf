package pcm

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-testsignals/dsp/core"
	timestats "github.com/cwbudde/algo-testsignals/stats/time"
)

// Headroom is the peak level normalization scales to.
const Headroom = 0.95

// Buffer is a quantized, interleaved sample buffer. Exactly one of Ints and
// Floats is populated, depending on BitDepth.
type Buffer struct {
	SampleRate int
	Channels   int
	BitDepth   core.BitDepth
	Ints       []int32
	Floats     []float32
}

// Len returns the total number of interleaved samples.
func (b *Buffer) Len() int {
	if b.BitDepth.IsFloat() {
		return len(b.Floats)
	}
	return len(b.Ints)
}

// Frames returns the number of samples per channel.
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return b.Len() / b.Channels
}

// Channel returns channel ch scaled back to nominal [-1, 1] floats.
func (b *Buffer) Channel(ch int) ([]float64, error) {
	if ch < 0 || ch >= b.Channels {
		return nil, fmt.Errorf("pcm: channel %d out of range [0,%d): %w", ch, b.Channels, core.ErrInvalidArgument)
	}

	out := make([]float64, b.Frames())
	scale := 1 / b.BitDepth.MaxValue()
	for i := range out {
		idx := i*b.Channels + ch
		if b.BitDepth.IsFloat() {
			out[i] = float64(b.Floats[idx])
		} else {
			out[i] = float64(b.Ints[idx]) * scale
		}
	}
	return out, nil
}

// Mono quantizes a single waveform. With normalize set the waveform is first
// scaled so its peak sits at Headroom; silence is left as is.
func Mono(w []float64, sampleRate int, depth core.BitDepth, normalize bool) (*Buffer, error) {
	if err := validate(sampleRate, depth, len(w)); err != nil {
		return nil, err
	}

	scale := 1.0
	if normalize {
		scale = PeakScale(timestats.Peak(w))
	}

	b := newBuffer(sampleRate, 1, depth, len(w))
	for i, v := range w {
		b.put(i, v*scale)
	}
	return b, nil
}

// Stereo interleaves left and right. Normalization uses the joint peak of
// both channels so their balance is preserved.
func Stereo(left, right []float64, sampleRate int, depth core.BitDepth, normalize bool) (*Buffer, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("pcm: channel lengths differ: left=%d right=%d: %w", len(left), len(right), core.ErrInvalidArgument)
	}
	if err := validate(sampleRate, depth, len(left)); err != nil {
		return nil, err
	}

	scale := 1.0
	if normalize {
		scale = PeakScale(math.Max(timestats.Peak(left), timestats.Peak(right)))
	}

	b := newBuffer(sampleRate, 2, depth, 2*len(left))
	for i := range left {
		b.put(2*i, left[i]*scale)
		b.put(2*i+1, right[i]*scale)
	}
	return b, nil
}

// PeakScale returns the gain that brings peak to Headroom, or 1 for a zero
// peak.
func PeakScale(peak float64) float64 {
	if peak == 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return 1
	}
	return Headroom / peak
}

// QuantizeInt converts x to an integer sample at depth: multiply by the
// full-scale value, truncate toward zero, clamp to ±max.
func QuantizeInt(x float64, depth core.BitDepth) int32 {
	limit := depth.MaxValue()
	scaled := math.Trunc(x * limit)
	if math.IsNaN(scaled) {
		return 0
	}
	return int32(core.Clamp(scaled, -limit, limit))
}

func validate(sampleRate int, depth core.BitDepth, n int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("pcm: sample rate must be > 0: %d: %w", sampleRate, core.ErrInvalidArgument)
	}
	if !depth.Valid() {
		return fmt.Errorf("pcm: unsupported bit depth %v: %w", depth, core.ErrInvalidArgument)
	}
	if n == 0 {
		return fmt.Errorf("pcm: waveform must not be empty: %w", core.ErrInvalidArgument)
	}
	return nil
}

func newBuffer(sampleRate, channels int, depth core.BitDepth, n int) *Buffer {
	b := &Buffer{SampleRate: sampleRate, Channels: channels, BitDepth: depth}
	if depth.IsFloat() {
		b.Floats = make([]float32, n)
	} else {
		b.Ints = make([]int32, n)
	}
	return b
}

func (b *Buffer) put(i int, v float64) {
	if b.BitDepth.IsFloat() {
		b.Floats[i] = float32(v)
		return
	}
	b.Ints[i] = QuantizeInt(v, b.BitDepth)
}
