package campaign

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cwbudde/algo-testsignals/dsp/core"
	"github.com/cwbudde/algo-testsignals/dsp/pcm"
	"github.com/cwbudde/algo-testsignals/export/manifest"
	"github.com/cwbudde/algo-testsignals/internal/testutil"
)

func newTestRunner(t *testing.T, dir string, opts ...Option) *Runner {
	t.Helper()
	r, err := NewRunner(dir, opts...)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

func TestRunWritesCatalogue(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	r := newTestRunner(t, dir,
		WithSeed(42),
		WithDurationScale(0.1),
		WithLogger(log.New(&logs, "", 0)),
	)

	inv, err := r.Run(context.Background(), []int{16000}, Suites())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// compliance 9, quality 6 tones + 4, stereo 5, stress 3
	if inv.Len() != 27 {
		t.Fatalf("inventory has %d fixtures, want 27", inv.Len())
	}

	for _, rel := range []string{
		"16000hz/compliance/dynamic_range_-03db.wav",
		"16000hz/quality/freq_response_05000hz.wav",
		"16000hz/quality/frequency_sweep_20hz_20khz.wav",
		"16000hz/quality/pink_noise.wav",
		"16000hz/stereo/stereo_out_of_phase.wav",
		"16000hz/stress/long_sine_2min.wav",
		"reference_outputs/test_expectations.json",
		"reference_outputs/test_configurations.json",
		"inventory.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Fatalf("missing %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "16000hz/quality/freq_response_10000hz.wav")); !os.IsNotExist(err) {
		t.Fatalf("tone above Nyquist was written")
	}

	long, ok := inv.Lookup("16000hz/stress/long_sine_2min.wav")
	if !ok || long.Frames != 192000 {
		t.Fatalf("long sine = %+v, want 192000 frames", long)
	}
	comp, _ := inv.Lookup("16000hz/compliance/itu_r_bs1196_1khz_sine_-20db.wav")
	if comp.Frames != 8000 || comp.Channels != 1 {
		t.Fatalf("compliance tone = %+v", comp)
	}
	harm, _ := inv.Lookup("16000hz/quality/complex_harmonic_a4.wav")
	// Harmonics 0.5, 0.3, 0.2, 0.1 of the fundamental, all below 8 kHz.
	if want := math.Sqrt(0.25 + 0.09 + 0.04 + 0.01); math.Abs(harm.THD-want) > 0.01 {
		t.Fatalf("complex harmonic THD = %v, want %v", harm.THD, want)
	}
	if comp.THD == 0 || comp.THD > 1e-3 {
		t.Fatalf("sine THD = %v, want small and recorded", comp.THD)
	}

	if math.Abs(comp.PeakHz-1000) > 2 {
		t.Fatalf("sine peak = %v Hz, want 1000", comp.PeakHz)
	}
	if resp, _ := inv.Lookup("16000hz/quality/freq_response_05000hz.wav"); math.Abs(resp.PeakHz-5000) > 2 {
		t.Fatalf("5 kHz tone peak = %v Hz", resp.PeakHz)
	}
	for name, want := range map[string]float64{"white_noise": 0, "pink_noise": -3} {
		f, _ := inv.Lookup("16000hz/quality/" + name + ".wav")
		if f.SpectralTilt == nil {
			t.Fatalf("%s has no spectral tilt", name)
		}
		if math.Abs(*f.SpectralTilt-want) > 1 {
			t.Fatalf("%s tilt = %.2f dB/octave, want %.0f", name, *f.SpectralTilt, want)
		}
		if f.PeakHz != 0 || f.THD != 0 {
			t.Fatalf("%s has tonal measurements: %+v", name, f)
		}
	}
	if harm.SpectralTilt != nil {
		t.Fatalf("tone has a spectral tilt: %v", *harm.SpectralTilt)
	}

	left, _ := inv.Lookup("16000hz/stereo/stereo_left_only.wav")
	if left.Channels != 2 || left.PeakdBFS[1] != manifest.SilenceDB {
		t.Fatalf("left-only levels = %+v", left)
	}
	if math.Abs(left.PeakdBFS[0]-core.LinearToDB(pcm.Headroom)) > 0.01 {
		t.Fatalf("left-only peak = %v dBFS, want headroom", left.PeakdBFS[0])
	}

	var exp manifest.Expectations
	if err := manifest.ReadJSON(filepath.Join(dir, ReferenceDir, ExpectationsFile), &exp); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if exp["stress_tests"]["long_sine_2min"].MemoryGrowthMax != "5%" {
		t.Fatalf("expectations = %+v", exp["stress_tests"])
	}

	var stored manifest.Inventory
	if err := manifest.ReadJSON(filepath.Join(dir, InventoryFile), &stored); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if stored.RunID != inv.RunID || stored.Seed != 42 || len(stored.Fixtures) != 27 {
		t.Fatalf("stored inventory run=%s seed=%d fixtures=%d", stored.RunID, stored.Seed, len(stored.Fixtures))
	}

	for _, want := range []string{"Processing sample rate: 16000 Hz", "Generating stress test signals at 16000 Hz...", "complete"} {
		if !strings.Contains(logs.String(), want) {
			t.Fatalf("log lacks %q:\n%s", want, logs.String())
		}
	}
}

func TestRunComplianceLevels(t *testing.T) {
	dir := t.TempDir()
	r := newTestRunner(t, dir)

	inv, err := r.Run(context.Background(), []int{16000}, []Suite{Compliance})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The 0.1 s fades lower a 5 s tone by about 0.12 dB.
	tests := map[string]float64{
		"itu_r_bs1196_1khz_sine_-20db": -20,
		"ebu_r128_reference_-23lufs":   -23,
		"dynamic_range_-03db":          -3,
		"dynamic_range_-40db":          -40,
	}
	for name, want := range tests {
		f, ok := inv.Lookup("16000hz/compliance/" + name + ".wav")
		if !ok {
			t.Fatalf("%s not recorded", name)
		}
		if got := f.RMSdBFS[0]; math.Abs(got-want) > 0.25 {
			t.Fatalf("%s RMS = %.3f dBFS, want %.1f", name, got, want)
		}
		// At 1 kHz the K-weighting gain nearly cancels the -0.691 offset.
		if got := f.IntegratedLUFS; math.Abs(got-want) > 0.3 {
			t.Fatalf("%s loudness = %.3f LUFS, want %.1f", name, got, want)
		}
	}
}

func TestRunReproducible(t *testing.T) {
	render := func(seed uint64) []byte {
		dir := t.TempDir()
		r := newTestRunner(t, dir, WithSeed(seed), WithDurationScale(0.05))
		if _, err := r.Run(context.Background(), []int{16000}, []Suite{Stress}); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "16000hz", "stress", "rapid_content_changes.wav"))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		return data
	}

	a, b, c := render(9), render(9), render(10)
	if !bytes.Equal(a, b) {
		t.Fatal("same seed produced different files")
	}
	if bytes.Equal(a, c) {
		t.Fatal("different seeds produced identical noise")
	}
}

type recordingSink struct {
	mu    sync.Mutex
	paths []string
	fail  error
}

func (s *recordingSink) Write(buf *pcm.Buffer, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.paths = append(s.paths, path)
	return nil
}

func TestRunConcurrentRates(t *testing.T) {
	sink := &recordingSink{}
	dir := t.TempDir()
	r := newTestRunner(t, dir, WithSink(sink), WithDurationScale(0.05), WithConcurrency(2))

	inv, err := r.Run(context.Background(), []int{16000, 22050, 48000}, []Suite{Stereo})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sink.paths) != 15 || inv.Len() != 15 {
		t.Fatalf("wrote %d files, inventory %d; want 15", len(sink.paths), inv.Len())
	}
	if inv.Fixtures[0].Path != "16000hz/stereo/stereo_center.wav" {
		t.Fatalf("first fixture = %q", inv.Fixtures[0].Path)
	}
}

func TestRunSinkFailure(t *testing.T) {
	errDisk := errors.New("disk full")
	r := newTestRunner(t, t.TempDir(), WithSink(&recordingSink{fail: errDisk}), WithDurationScale(0.05))

	_, err := r.Run(context.Background(), []int{16000, 48000}, []Suite{Compliance})
	if !errors.Is(err, errDisk) {
		t.Fatalf("Run() error = %v, want %v", err, errDisk)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	r := newTestRunner(t, t.TempDir(), WithSink(sink))
	_, err := r.Run(ctx, []int{48000}, Suites())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(sink.paths) != 0 {
		t.Fatalf("wrote %d files after cancellation", len(sink.paths))
	}
}

func TestRunArgumentErrors(t *testing.T) {
	r := newTestRunner(t, t.TempDir())
	ctx := context.Background()

	_, err := r.Run(ctx, nil, Suites())
	testutil.RequireInvalidArgument(t, err)

	_, err = r.Run(ctx, []int{0}, Suites())
	testutil.RequireInvalidArgument(t, err)

	_, err = r.Run(ctx, []int{16000}, []Suite{"loudness"})
	testutil.RequireInvalidArgument(t, err)
}

func TestNewRunnerOptionErrors(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		opt  Option
	}{
		{"empty dir", "", nil},
		{"bad depth", "out", WithBitDepth(core.BitDepth(9))},
		{"zero scale", "out", WithDurationScale(0)},
		{"nil sink", "out", WithSink(nil)},
		{"nil writer", "out", WithMetadataWriter(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(tt.dir, tt.opt)
			testutil.RequireInvalidArgument(t, err)
		})
	}
}

func TestFixtureSeedsIndependent(t *testing.T) {
	r := newTestRunner(t, t.TempDir(), WithSeed(7))
	seen := make(map[uint64]string)
	for _, rate := range DefaultRates {
		for _, s := range Suites() {
			for stream := range 2 {
				seed := r.fixtureSeed(rate, s, stream)
				key := fmt.Sprintf("%d/%s/%d", rate, s, stream)
				if prev, ok := seen[seed]; ok {
					t.Fatalf("%s and %s share seed %d", prev, key, seed)
				}
				seen[seed] = key
			}
		}
	}
	// Stream 0 keeps the per-suite seed.
	if got, want := r.fixtureSeed(48000, Stress, 0), uint64(7+48000)+uint64(Stress.index())<<32; got != want {
		t.Fatalf("fixtureSeed() = %d, want %d", got, want)
	}
}
