package campaign

import "github.com/cwbudde/algo-testsignals/export/manifest"

// Reference output locations relative to the campaign root.
const (
	ReferenceDir       = "reference_outputs"
	ExpectationsFile   = "test_expectations.json"
	ConfigurationsFile = "test_configurations.json"
	InventoryFile      = "inventory.json"
)

// DefaultExpectations returns the encoder pass criteria for the catalogue.
func DefaultExpectations() manifest.Expectations {
	return manifest.Expectations{
		"compliance_tests": {
			"itu_r_bs1196_1khz_sine_-20db": {
				ExpectedSNRMin:           45.0,
				ExpectedBitrateTolerance: 0.1,
				TestStandard:             "ITU-R BS.1196-7",
			},
			"itu_r_bs1196_multi_tone_-12db": {
				ExpectedSNRMin:           40.0,
				ExpectedBitrateTolerance: 0.15,
				TestStandard:             "ITU-R BS.1196-7",
			},
			"ebu_r128_reference_-23lufs": {
				ExpectedSNRMin:           42.0,
				ExpectedBitrateTolerance: 0.1,
				TestStandard:             "EBU R128",
			},
		},
		"quality_tests": {
			"frequency_response": {
				MaxVariationDB:  3.0,
				TestFrequencies: append([]int(nil), FrequencyResponseHz...),
			},
			"complex_harmonic": {
				ExpectedSNRMin: 38.0,
				ExpectedTHDMax: 0.5,
			},
		},
		"stress_tests": {
			"rapid_content_changes": {
				ExpectedSNRMin:       25.0,
				StabilityRequirement: "SNR variation < 10 dB",
			},
			"long_sine_2min": {
				ExpectedSNRMin:  45.0,
				MemoryGrowthMax: "5%",
			},
		},
	}
}
