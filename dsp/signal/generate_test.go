package signal

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-testsignals/dsp/core"
	"github.com/cwbudde/algo-testsignals/internal/testutil"
	timestats "github.com/cwbudde/algo-testsignals/stats/time"
)

func newTestGenerator(t *testing.T, rate int, duration float64, opts ...Option) *Generator {
	t.Helper()
	g, err := New(core.SamplingConfig{SampleRate: rate, Duration: duration, BitDepth: core.BitDepth16}, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(core.SamplingConfig{SampleRate: 0, Duration: 1, BitDepth: core.BitDepth16})
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("New() error = %v, want ErrInvalidArgument", err)
	}
	if got := strings.Count(err.Error(), core.ErrInvalidArgument.Error()); got != 1 {
		t.Fatalf("New() error = %q mentions the sentinel %d times, want 1", err, got)
	}
}

func TestTimeAxis(t *testing.T) {
	g := newTestGenerator(t, 1000, 0.01)
	ta := g.Time()
	if len(ta) != 10 || g.SampleCount() != 10 {
		t.Fatalf("len = %d, want 10", len(ta))
	}
	if ta[0] != 0 || ta[1] != 0.001 {
		t.Fatalf("axis = %v", ta[:2])
	}

	ta[1] = 42
	if g.Time()[1] != 0.001 {
		t.Fatal("Time() must return a copy")
	}
}

func TestSineLengthAndBound(t *testing.T) {
	g := newTestGenerator(t, 44100, 0.1)
	for _, tc := range []struct{ f, a, p float64 }{
		{440, 0.5, 0}, {1000, 1, math.Pi / 3}, {20000, 0.01, -1},
	} {
		s, err := g.Sine(tc.f, tc.a, tc.p)
		if err != nil {
			t.Fatalf("Sine() error = %v", err)
		}
		if len(s) != 4410 {
			t.Fatalf("len = %d, want 4410", len(s))
		}
		if peak := timestats.Peak(s); peak > tc.a+1e-12 {
			t.Fatalf("peak = %v exceeds amplitude %v", peak, tc.a)
		}
	}
}

func TestSineEndToEnd(t *testing.T) {
	g := newTestGenerator(t, 48000, 1.0)
	s, err := g.Sine(1000, 1.0, 0)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}
	if len(s) != 48000 {
		t.Fatalf("len = %d, want 48000", len(s))
	}
	if s[0] != 0 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	if rms := timestats.RMS(s); math.Abs(rms-0.7071) > 1e-4 {
		t.Fatalf("RMS = %v, want 0.7071", rms)
	}
}

func TestInvalidFrequencies(t *testing.T) {
	g := newTestGenerator(t, 48000, 0.01)
	calls := map[string]func() error{
		"sine zero": func() error { _, err := g.Sine(0, 1, 0); return err },
		"sine NaN":  func() error { _, err := g.Sine(math.NaN(), 1, 0); return err },
		"multitone": func() error { _, err := g.MultiTone([]float64{100, -1}, []float64{1, 1}); return err },
		"sweep":     func() error { _, err := g.FrequencySweep(-20, 100, 1, SweepLinear); return err },
		"warble":    func() error { _, err := g.WarbleTone(1000, 0, 0.1, 0.5); return err },
		"am":        func() error { _, err := g.AmplitudeModulated(-1000, 4, 0.5, 0.5); return err },
		"complex":   func() error { _, err := g.ComplexTone(0, []float64{1}, 0.5); return err },
		"impulse":   func() error { _, err := g.ImpulseTrain(0, 0.8); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, core.ErrInvalidArgument) {
				t.Fatalf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestMultiToneSingleEqualsSine(t *testing.T) {
	g := newTestGenerator(t, 48000, 0.05)
	mt, err := g.MultiTone([]float64{997}, []float64{0.3})
	if err != nil {
		t.Fatalf("MultiTone() error = %v", err)
	}
	s, err := g.Sine(997, 0.3, 0)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}
	for i := range s {
		if mt[i] != s[i] {
			t.Fatalf("index %d: multitone %v != sine %v", i, mt[i], s[i])
		}
	}
}

func TestMultiToneSum(t *testing.T) {
	g := newTestGenerator(t, 48000, 0.02)
	freqs := []float64{440, 1000, 3000, 8000}
	amps := []float64{0.25, 0.25, 0.25, 0.25}

	mt, err := g.MultiTone(freqs, amps)
	if err != nil {
		t.Fatalf("MultiTone() error = %v", err)
	}

	want := make([]float64, g.SampleCount())
	for i, f := range freqs {
		s, _ := g.Sine(f, amps[i], 0)
		for j := range want {
			want[j] += s[j]
		}
	}
	testutil.RequireSliceNearlyEqual(t, mt, want, 1e-12)
}

func TestMultiToneMismatch(t *testing.T) {
	g := newTestGenerator(t, 48000, 0.01)
	_, err := g.MultiTone([]float64{100, 200}, []float64{1})
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}

	silent, err := g.MultiTone(nil, nil)
	if err != nil {
		t.Fatalf("MultiTone(nil, nil) error = %v", err)
	}
	if timestats.Peak(silent) != 0 || len(silent) != g.SampleCount() {
		t.Fatal("empty multitone should be silence")
	}
}

func TestComplexToneDropsHarmonicsAtNyquist(t *testing.T) {
	g := newTestGenerator(t, 8000, 0.05)

	ct, err := g.ComplexTone(2000, []float64{1.0}, 0.4)
	if err != nil {
		t.Fatalf("ComplexTone() error = %v", err)
	}
	s, _ := g.Sine(2000, 0.4, 0)
	for i := range s {
		if ct[i] != s[i] {
			t.Fatalf("index %d: complex %v != sine %v", i, ct[i], s[i])
		}
	}
}

func TestComplexToneHarmonics(t *testing.T) {
	g := newTestGenerator(t, 8000, 0.05)

	// 1000 Hz fundamental: 2 kHz and 3 kHz stay, 4 kHz is dropped.
	ct, err := g.ComplexTone(1000, []float64{0.5, 0.3, 0.2}, 0.4)
	if err != nil {
		t.Fatalf("ComplexTone() error = %v", err)
	}

	want, _ := g.MultiTone([]float64{1000, 2000, 3000}, []float64{0.4, 0.2, 0.12})
	testutil.RequireSliceNearlyEqual(t, ct, want, 1e-12)
}

func TestImpulseTrainEndToEnd(t *testing.T) {
	g := newTestGenerator(t, 48000, 2.0)
	out, err := g.ImpulseTrain(0.5, 0.8)
	if err != nil {
		t.Fatalf("ImpulseTrain() error = %v", err)
	}

	var nonzero []int
	for i, v := range out {
		if v != 0 {
			if v != 0.8 {
				t.Fatalf("out[%d] = %v, want 0.8", i, v)
			}
			nonzero = append(nonzero, i)
		}
	}
	want := []int{0, 24000, 48000, 72000}
	if len(nonzero) != len(want) {
		t.Fatalf("nonzero = %v, want %v", nonzero, want)
	}
	for i := range want {
		if nonzero[i] != want[i] {
			t.Fatalf("nonzero = %v, want %v", nonzero, want)
		}
	}
}

func TestImpulseTrainShorterThanSample(t *testing.T) {
	g := newTestGenerator(t, 1000, 0.1)
	if _, err := g.ImpulseTrain(0.0001, 1); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestImpulseTrainIntervalBeyondDuration(t *testing.T) {
	g := newTestGenerator(t, 48000, 0.01)
	for _, interval := range []float64{0.01, 1, 1e15} {
		out, err := g.ImpulseTrain(interval, 0.8)
		if err != nil {
			t.Fatalf("ImpulseTrain(%v) error = %v", interval, err)
		}
		if out[0] != 0.8 {
			t.Fatalf("ImpulseTrain(%v)[0] = %v, want 0.8", interval, out[0])
		}
		for i, v := range out[1:] {
			if v != 0 {
				t.Fatalf("ImpulseTrain(%v)[%d] = %v, want a single impulse", interval, i+1, v)
			}
		}
	}
}

func TestAmplitudeModulated(t *testing.T) {
	g := newTestGenerator(t, 48000, 0.1)
	out, err := g.AmplitudeModulated(1000, 10, DefaultAMDepth, DefaultToneAmplitude)
	if err != nil {
		t.Fatalf("AmplitudeModulated() error = %v", err)
	}

	ta := g.Time()
	for i, tt := range ta {
		want := 0.5 * math.Sin(2*math.Pi*1000*tt) * (1 + 0.5*math.Sin(2*math.Pi*10*tt))
		if math.Abs(out[i]-want) > 1e-12 {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want)
		}
	}
	if peak := timestats.Peak(out); peak > 0.75+1e-12 {
		t.Fatalf("peak = %v, want <= 0.75", peak)
	}
}

func TestWarbleToneDiscretePhase(t *testing.T) {
	g := newTestGenerator(t, 48000, 0.05)

	// Without modulation the running sum makes phase[i] = 2π*f*(i+1)/rate.
	out, err := g.WarbleTone(1000, 5, 0, 0.5)
	if err != nil {
		t.Fatalf("WarbleTone() error = %v", err)
	}
	for i := range out {
		want := 0.5 * math.Sin(2*math.Pi*1000*float64(i+1)/48000)
		if math.Abs(out[i]-want) > 1e-9 {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want)
		}
	}
}

func TestWarbleToneMeanFrequency(t *testing.T) {
	g := newTestGenerator(t, 48000, 1.0)
	out, err := g.WarbleTone(1000, 4, DefaultWarbleDepth, 0.5)
	if err != nil {
		t.Fatalf("WarbleTone() error = %v", err)
	}
	if peak := timestats.Peak(out); peak > 0.5+1e-12 {
		t.Fatalf("peak = %v exceeds amplitude", peak)
	}
	// Whole modulation periods average back to the carrier.
	if f := timestats.CrossingFrequency(out, 48000); math.Abs(f-1000) > 5 {
		t.Fatalf("mean frequency = %v, want ~1000", f)
	}
}
