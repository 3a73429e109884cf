package core

import (
	"fmt"
	"math"
)

// SamplingConfig fixes the sample rate, duration and output bit depth of a
// generator. It does not change for the lifetime of the generator.
type SamplingConfig struct {
	SampleRate int     // Hz
	Duration   float64 // seconds
	BitDepth   BitDepth
}

// SamplingOption mutates a SamplingConfig.
type SamplingOption func(*SamplingConfig)

// DefaultSamplingConfig returns 48 kHz, 5 s, 16-bit.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SampleRate: 48000,
		Duration:   5.0,
		BitDepth:   BitDepth16,
	}
}

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sampleRate int) SamplingOption {
	return func(cfg *SamplingConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithDuration sets the signal duration in seconds.
func WithDuration(seconds float64) SamplingOption {
	return func(cfg *SamplingConfig) {
		if seconds > 0 && !math.IsInf(seconds, 0) {
			cfg.Duration = seconds
		}
	}
}

// WithBitDepth sets the output bit depth.
func WithBitDepth(depth BitDepth) SamplingOption {
	return func(cfg *SamplingConfig) {
		if depth.Valid() {
			cfg.BitDepth = depth
		}
	}
}

// ApplySamplingOptions applies zero or more options to the default config.
func ApplySamplingOptions(opts ...SamplingOption) SamplingConfig {
	cfg := DefaultSamplingConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// SampleCount returns round(SampleRate * Duration).
func (c SamplingConfig) SampleCount() int {
	return int(math.Round(float64(c.SampleRate) * c.Duration))
}

// Nyquist returns half the sample rate in Hz.
func (c SamplingConfig) Nyquist() float64 {
	return float64(c.SampleRate) / 2
}

// Validate reports whether the configuration can drive a generator.
func (c SamplingConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be > 0: %d: %w", c.SampleRate, ErrInvalidArgument)
	}
	if c.Duration <= 0 || math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("duration must be > 0 and finite: %f: %w", c.Duration, ErrInvalidArgument)
	}
	if c.SampleCount() <= 0 {
		return fmt.Errorf("duration %f at %d Hz yields no samples: %w", c.Duration, c.SampleRate, ErrInvalidArgument)
	}
	if !c.BitDepth.Valid() {
		return fmt.Errorf("unsupported bit depth %d: %w", c.BitDepth, ErrInvalidArgument)
	}
	return nil
}
