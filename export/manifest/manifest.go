package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-testsignals/dsp/core"
)

// Expectation holds the pass criteria an encoder must meet for one fixture.
// Zero-valued fields are omitted from the document.
type Expectation struct {
	ExpectedSNRMin           float64 `json:"expected_snr_min,omitempty"`
	ExpectedBitrateTolerance float64 `json:"expected_bitrate_tolerance,omitempty"`
	TestStandard             string  `json:"test_standard,omitempty"`
	MaxVariationDB           float64 `json:"max_variation_db,omitempty"`
	TestFrequencies          []int   `json:"test_frequencies,omitempty"`
	ExpectedTHDMax           float64 `json:"expected_thd_max,omitempty"`
	StabilityRequirement     string  `json:"stability_requirement,omitempty"`
	MemoryGrowthMax          string  `json:"memory_growth_max,omitempty"`
}

// Validate checks field ranges.
func (e Expectation) Validate() error {
	if e.ExpectedBitrateTolerance < 0 || e.ExpectedBitrateTolerance > 1 {
		return fmt.Errorf("manifest: bitrate tolerance %v outside [0,1]: %w", e.ExpectedBitrateTolerance, core.ErrInvalidArgument)
	}
	if e.MaxVariationDB < 0 {
		return fmt.Errorf("manifest: max variation %v dB must be >= 0: %w", e.MaxVariationDB, core.ErrInvalidArgument)
	}
	if e.ExpectedTHDMax < 0 {
		return fmt.Errorf("manifest: THD limit %v must be >= 0: %w", e.ExpectedTHDMax, core.ErrInvalidArgument)
	}
	return nil
}

// Expectations maps a suite key (for example "compliance_tests") to the
// expectations of each fixture in it.
type Expectations map[string]map[string]Expectation

// Validate checks every expectation and reports the first failure with its
// suite and fixture key.
func (e Expectations) Validate() error {
	for suite, fixtures := range e {
		for name, exp := range fixtures {
			if err := exp.Validate(); err != nil {
				return fmt.Errorf("%s/%s: %w", suite, name, err)
			}
		}
	}
	return nil
}

// Configurations is the encoder configuration matrix.
type Configurations struct {
	SampleRates    []int     `json:"sample_rates"`
	ChannelConfigs []int     `json:"channel_configs"`
	Bitrates       []int     `json:"bitrates"`
	QualityLevels  []float64 `json:"quality_levels"`
}

// DefaultConfigurations returns the matrix codec tests sweep by default.
func DefaultConfigurations() Configurations {
	return Configurations{
		SampleRates:    []int{16000, 22050, 44100, 48000},
		ChannelConfigs: []int{1, 2, 4, 6},
		Bitrates:       []int{32000, 64000, 96000, 128000, 192000, 256000},
		QualityLevels:  []float64{0.2, 0.4, 0.6, 0.8, 1.0},
	}
}

// Writer persists documents as indented JSON.
type Writer struct {
	// DirMode is used when creating parent directories. Zero means 0o755.
	DirMode os.FileMode
}

// WriteJSON encodes v to path with two-space indentation and a trailing
// newline, creating parent directories as needed.
func (w Writer) WriteJSON(path string, v any) error {
	if val, ok := v.(interface{ Validate() error }); ok {
		if err := val.Validate(); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode %s: %w", path, err)
	}
	data = append(data, '\n')

	mode := w.DirMode
	if mode == 0 {
		mode = 0o755
	}
	if err := os.MkdirAll(filepath.Dir(path), mode); err != nil {
		return fmt.Errorf("manifest: create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return nil
}

// ReadJSON decodes the document at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("manifest: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("manifest: decode %s: %w", path, err)
	}
	return nil
}
