package campaign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-testsignals/dsp/core"
	"github.com/cwbudde/algo-testsignals/dsp/pcm"
	"github.com/cwbudde/algo-testsignals/dsp/signal"
	"github.com/cwbudde/algo-testsignals/export/manifest"
	"github.com/cwbudde/algo-testsignals/export/wavfile"
	"github.com/cwbudde/algo-testsignals/measure/loudness"
	"github.com/cwbudde/algo-testsignals/measure/thd"
	"github.com/cwbudde/algo-testsignals/stats/frequency"
	timestats "github.com/cwbudde/algo-testsignals/stats/time"
)

// DefaultRates are the sample rates rendered when none are given.
var DefaultRates = []int{16000, 44100, 48000}

// thdSegment is the analysis length used for THD and peak frequency.
const thdSegment = 1 << 15

// Octave-band range of the noise tilt fit. The upper edge is also capped at
// a quarter of the sample rate.
const (
	tiltLowHz  = 100.0
	tiltHighHz = 8000.0
)

// Sink persists a packaged buffer.
type Sink interface {
	Write(buf *pcm.Buffer, path string) error
}

// MetadataWriter persists a JSON document.
type MetadataWriter interface {
	WriteJSON(path string, v any) error
}

// Runner renders suites to an output directory.
type Runner struct {
	outDir      string
	seed        uint64
	depth       core.BitDepth
	scale       float64
	concurrency int
	logger      *log.Logger
	sink        Sink
	meta        MetadataWriter
}

// Option configures a Runner.
type Option func(*Runner) error

// WithSeed sets the base seed noise sources are derived from.
func WithSeed(seed uint64) Option {
	return func(r *Runner) error {
		r.seed = seed
		return nil
	}
}

// WithBitDepth sets the output sample format.
func WithBitDepth(depth core.BitDepth) Option {
	return func(r *Runner) error {
		if !depth.Valid() {
			return fmt.Errorf("campaign: unsupported bit depth %v: %w", depth, core.ErrInvalidArgument)
		}
		r.depth = depth
		return nil
	}
}

// WithDurationScale multiplies every fixture duration by scale. Envelope
// times are not scaled.
func WithDurationScale(scale float64) Option {
	return func(r *Runner) error {
		if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
			return fmt.Errorf("campaign: duration scale must be > 0 and finite: %v: %w", scale, core.ErrInvalidArgument)
		}
		r.scale = scale
		return nil
	}
}

// WithConcurrency limits how many sample rates render at once. Zero or
// less means no limit.
func WithConcurrency(n int) Option {
	return func(r *Runner) error {
		r.concurrency = n
		return nil
	}
}

// WithLogger routes progress messages to logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// WithSink replaces the WAV sink.
func WithSink(sink Sink) Option {
	return func(r *Runner) error {
		if sink == nil {
			return fmt.Errorf("campaign: sink must not be nil: %w", core.ErrInvalidArgument)
		}
		r.sink = sink
		return nil
	}
}

// WithMetadataWriter replaces the JSON writer.
func WithMetadataWriter(w MetadataWriter) Option {
	return func(r *Runner) error {
		if w == nil {
			return fmt.Errorf("campaign: metadata writer must not be nil: %w", core.ErrInvalidArgument)
		}
		r.meta = w
		return nil
	}
}

// NewRunner creates a runner writing below outDir.
func NewRunner(outDir string, opts ...Option) (*Runner, error) {
	if outDir == "" {
		return nil, fmt.Errorf("campaign: output directory must not be empty: %w", core.ErrInvalidArgument)
	}

	r := &Runner{
		outDir: outDir,
		depth:  core.BitDepth16,
		scale:  1,
		logger: log.New(io.Discard, "", 0),
		sink:   wavfile.Sink{},
		meta:   manifest.Writer{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run renders suites at every rate, then writes the reference outputs and
// the inventory. Rates render concurrently; the first failure cancels the
// rest. Cancellation is checked between fixtures.
func (r *Runner) Run(ctx context.Context, rates []int, suites []Suite) (*manifest.Inventory, error) {
	if len(rates) == 0 {
		return nil, fmt.Errorf("campaign: no sample rates given: %w", core.ErrInvalidArgument)
	}
	for _, rate := range rates {
		if rate <= 0 {
			return nil, fmt.Errorf("campaign: sample rate must be > 0: %d: %w", rate, core.ErrInvalidArgument)
		}
	}
	for _, s := range suites {
		if !s.Valid() {
			return nil, fmt.Errorf("campaign: unknown suite %q: %w", s, core.ErrInvalidArgument)
		}
	}

	r.logger.Printf("Generating test audio files in: %s", r.outDir)
	r.logger.Printf("Sample rates: %v", rates)
	r.logger.Printf("Test types: %v", suites)

	inv := manifest.NewInventory(r.seed, r.depth.String())

	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for _, rate := range rates {
		g.Go(func() error {
			return r.renderRate(gctx, rate, suites, inv)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := r.writeReference(); err != nil {
		return nil, err
	}

	inv.Sort()
	if err := r.meta.WriteJSON(filepath.Join(r.outDir, InventoryFile), inv); err != nil {
		return nil, fmt.Errorf("campaign: %w", err)
	}

	r.logger.Printf("Test audio generation complete: %d files in %s", inv.Len(), r.outDir)
	return inv, nil
}

func (r *Runner) renderRate(ctx context.Context, rate int, suites []Suite, inv *manifest.Inventory) error {
	r.logger.Printf("Processing sample rate: %d Hz", rate)
	for _, s := range suites {
		if err := r.renderSuite(ctx, rate, s, inv); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) renderSuite(ctx context.Context, rate int, s Suite, inv *manifest.Inventory) error {
	def, _ := specFor(s)
	r.logger.Printf("Generating %s test signals at %d Hz...", s, rate)

	gens := make(map[float64]*signal.Generator)
	for _, fx := range def.fixtures(rate) {
		if err := ctx.Err(); err != nil {
			return err
		}

		duration := def.durationOf(fx) * r.scale

		gen, ok := gens[duration]
		if !ok {
			var err error
			cfg := core.ApplySamplingOptions(
				core.WithSampleRate(rate),
				core.WithDuration(duration),
				core.WithBitDepth(r.depth),
			)
			gen, err = signal.New(cfg, signal.WithSeed(r.fixtureSeed(rate, s, len(gens))))
			if err != nil {
				return fmt.Errorf("campaign: %d Hz %s: %w", rate, s, err)
			}
			gens[duration] = gen
		}

		if err := r.renderFixture(gen, rate, s, fx, inv); err != nil {
			return err
		}
	}
	return nil
}

// fixtureSeed derives an independent seed per rate, suite and generator, so
// a suite's noise does not depend on which other suites were selected.
// stream counts the distinct durations within the suite in catalogue order.
func (r *Runner) fixtureSeed(rate int, s Suite, stream int) uint64 {
	return r.seed + uint64(rate) + uint64(s.index())<<32 + uint64(stream)<<40
}

func (r *Runner) renderFixture(gen *signal.Generator, rate int, s Suite, fx fixture, inv *manifest.Inventory) error {
	channels, err := fx.render(gen)
	if err != nil {
		return fmt.Errorf("campaign: %d Hz %s/%s: %w", rate, s, fx.name, err)
	}

	var buf *pcm.Buffer
	switch len(channels) {
	case 1:
		buf, err = pcm.Mono(channels[0], rate, r.depth, fx.normalize)
	case 2:
		buf, err = pcm.Stereo(channels[0], channels[1], rate, r.depth, fx.normalize)
	default:
		err = fmt.Errorf("%d channels: %w", len(channels), core.ErrInvalidArgument)
	}
	if err != nil {
		return fmt.Errorf("campaign: %d Hz %s/%s: %w", rate, s, fx.name, err)
	}

	rel := filepath.Join(strconv.Itoa(rate)+"hz", string(s), fx.name+".wav")
	if err := r.sink.Write(buf, filepath.Join(r.outDir, rel)); err != nil {
		return fmt.Errorf("campaign: %w", err)
	}

	f := manifest.Fixture{
		Path:       filepath.ToSlash(rel),
		Suite:      string(s),
		Name:       fx.name,
		SampleRate: rate,
		Channels:   buf.Channels,
		Frames:     buf.Frames(),
		Duration:   float64(buf.Frames()) / float64(rate),
	}
	decoded := make([][]float64, buf.Channels)
	for ch := range buf.Channels {
		x, err := buf.Channel(ch)
		if err != nil {
			return fmt.Errorf("campaign: %w", err)
		}
		st := timestats.Calculate(x)
		f.RMSdBFS = append(f.RMSdBFS, st.RMS_dB)
		f.PeakdBFS = append(f.PeakdBFS, st.Peak_dB)
		decoded[ch] = x
	}
	if f.IntegratedLUFS, err = loudness.Integrated(decoded, float64(rate)); err != nil {
		return fmt.Errorf("campaign: %s: %w", rel, err)
	}
	if err := r.measureSpectrum(&f, fx, decoded[0], rate); err != nil {
		return fmt.Errorf("campaign: %s: %w", rel, err)
	}
	inv.Add(f)

	r.logger.Printf("  wrote %s", rel)
	return nil
}

// measureSpectrum records THD and peak frequency of tonal fixtures and the
// spectral tilt of noise fixtures. Signals too short to analyse are logged
// and skipped.
func (r *Runner) measureSpectrum(f *manifest.Fixture, fx fixture, x []float64, rate int) error {
	sr := float64(rate)
	skip := func(what string, err error) error {
		if errors.Is(err, core.ErrInvalidArgument) {
			r.logger.Printf("  %s: skipping %s: %v", f.Path, what, err)
			return nil
		}
		return err
	}

	if fx.fundamental > 0 {
		seg := steadySegment(x)
		res, err := thd.AnalyzeSignal(seg, thd.Config{SampleRate: sr, FundamentalFreq: fx.fundamental})
		if err == nil {
			f.THD, f.THDN = res.THD, res.THDN
		} else if err := skip("THD", err); err != nil {
			return err
		}

		peak, err := frequency.PeakFrequency(seg, sr)
		if err == nil {
			f.PeakHz = peak
		} else if err := skip("peak frequency", err); err != nil {
			return err
		}
	}

	if fx.noise {
		tilt, err := frequency.SpectralTilt(x, sr, tiltLowHz, math.Min(tiltHighHz, sr/4))
		if err == nil {
			slope := tilt.SlopeDBPerOctave
			f.SpectralTilt = &slope
		} else if err := skip("spectral tilt", err); err != nil {
			return err
		}
	}
	return nil
}

// steadySegment returns up to thdSegment samples from the middle of x, away
// from the fades.
func steadySegment(x []float64) []float64 {
	if len(x) <= thdSegment {
		return x
	}
	start := (len(x) - thdSegment) / 2
	return x[start : start+thdSegment]
}

func (r *Runner) writeReference() error {
	r.logger.Printf("Generating reference output metadata...")

	dir := filepath.Join(r.outDir, ReferenceDir)
	if err := r.meta.WriteJSON(filepath.Join(dir, ExpectationsFile), DefaultExpectations()); err != nil {
		return fmt.Errorf("campaign: %w", err)
	}
	if err := r.meta.WriteJSON(filepath.Join(dir, ConfigurationsFile), manifest.DefaultConfigurations()); err != nil {
		return fmt.Errorf("campaign: %w", err)
	}
	return nil
}
