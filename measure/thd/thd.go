// Package thd measures harmonic distortion of a tonal signal.
//
// The signal is windowed with a 4-term Blackman-Harris window and
// transformed at its own length. Each component's level is the energy
// summed over CaptureBins on either side of its bin, so the ratio of two
// components is independent of where the tone falls between bins.
package thd

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-testsignals/dsp/core"
	"github.com/cwbudde/algo-testsignals/dsp/spectrum"
	"github.com/cwbudde/algo-testsignals/dsp/window"
)

const (
	defaultCaptureBins = 6
	defaultLowerHz     = 20.0
)

// Config holds THD analysis parameters.
type Config struct {
	SampleRate      float64
	FundamentalFreq float64 // Hz; the strongest bin near it is used
	MaxHarmonics    int     // 0 means every harmonic below Nyquist
	CaptureBins     int     // 0 means 6, which covers the window main lobe
	RangeLowerFreq  float64 // start of the THD+N band, default 20 Hz
}

// Result holds THD measurement results. Ratios are linear amplitude ratios
// to the fundamental.
//
//nolint:revive
type Result struct {
	FundamentalFreq  float64
	FundamentalLevel float64 // RMS of the captured fundamental, window-compensated
	THD              float64
	THDN             float64
	THD_dB           float64
	THDN_dB          float64
	OddHD            float64
	EvenHD           float64
	Harmonics        []float64 // per harmonic, starting with the 2nd
	SINAD            float64   // dB
}

// AnalyzeSignal measures the distortion of signal around cfg.FundamentalFreq.
func AnalyzeSignal(signal []float64, cfg Config) (Result, error) {
	if cfg.SampleRate <= 0 || cfg.FundamentalFreq <= 0 {
		return Result{}, fmt.Errorf("thd: sample rate and fundamental must be > 0: %w", core.ErrInvalidArgument)
	}
	if cfg.CaptureBins <= 0 {
		cfg.CaptureBins = defaultCaptureBins
	}
	if cfg.RangeLowerFreq <= 0 {
		cfg.RangeLowerFreq = defaultLowerHz
	}

	n := len(signal)
	binHz := cfg.SampleRate / float64(n)
	if n == 0 || cfg.FundamentalFreq/binHz < float64(2*cfg.CaptureBins) {
		return Result{}, fmt.Errorf("thd: %d samples cannot resolve %v Hz: %w", n, cfg.FundamentalFreq, core.ErrInvalidArgument)
	}
	if cfg.FundamentalFreq >= cfg.SampleRate/2 {
		return Result{}, fmt.Errorf("thd: fundamental %v Hz at or above Nyquist: %w", cfg.FundamentalFreq, core.ErrInvalidArgument)
	}

	x := append([]float64(nil), signal...)
	win, err := window.Apply(window.TypeBlackmanHarris4Term, x, window.WithPeriodic())
	if err != nil {
		return Result{}, fmt.Errorf("thd: %w", err)
	}
	energy := window.Energy(win)

	bins, err := spectrum.DFT(x)
	if err != nil {
		return Result{}, fmt.Errorf("thd: %w", err)
	}
	power := spectrum.Power(bins[:n/2+1])

	return analyzePower(power, binHz, energy, n, cfg), nil
}

func analyzePower(power []float64, binHz, winEnergy float64, n int, cfg Config) Result {
	maxBin := len(power) - 1
	capture := cfg.CaptureBins

	// Strongest bin within the capture span of the nominal frequency.
	nominal := int(math.Round(cfg.FundamentalFreq / binHz))
	fundBin := nominal
	for k := max(nominal-capture, 1); k <= min(nominal+capture, maxBin); k++ {
		if power[k] > power[fundBin] {
			fundBin = k
		}
	}
	fund := bandEnergy(power, fundBin, capture)

	// The energy centroid of the main lobe tracks a tone between bins, which
	// keeps the upper harmonics inside their capture spans.
	var moment float64
	for k := max(fundBin-capture, 1); k <= min(fundBin+capture, maxBin); k++ {
		moment += float64(k) * power[k]
	}
	f0 := float64(fundBin) * binHz
	if fund > 0 {
		f0 = moment / fund * binHz
	}

	res := Result{
		FundamentalFreq: f0,
		// One-sided bins carry half the energy of a real tone.
		FundamentalLevel: math.Sqrt(2 * fund / (float64(n) * winEnergy)),
	}
	if fund <= 0 {
		return res
	}

	var harm, odd, even float64
	for k := 2; cfg.MaxHarmonics <= 0 || k-1 <= cfg.MaxHarmonics; k++ {
		bin := int(math.Round(float64(k) * f0 / binHz))
		if bin+capture > maxBin {
			break
		}
		e := bandEnergy(power, bin, capture)
		harm += e
		if k%2 == 0 {
			even += e
		} else {
			odd += e
		}
		res.Harmonics = append(res.Harmonics, math.Sqrt(e/fund))
	}

	lower := max(int(math.Round(cfg.RangeLowerFreq/binHz)), 1)
	var total float64
	for k := lower; k <= maxBin; k++ {
		total += power[k]
	}
	rest := math.Max(total-fund, 0)

	res.THD = math.Sqrt(harm / fund)
	res.THDN = math.Sqrt(rest / fund)
	res.OddHD = math.Sqrt(odd / fund)
	res.EvenHD = math.Sqrt(even / fund)
	res.THD_dB = core.LinearToDB(res.THD)
	res.THDN_dB = core.LinearToDB(res.THDN)
	res.SINAD = math.Inf(1)
	if res.THDN > 0 {
		res.SINAD = -res.THDN_dB
	}
	return res
}

func bandEnergy(power []float64, center, capture int) float64 {
	var sum float64
	for k := max(center-capture, 1); k <= min(center+capture, len(power)-1); k++ {
		sum += power[k]
	}
	return sum
}
