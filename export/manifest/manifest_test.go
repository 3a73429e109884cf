package manifest

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-testsignals/dsp/core"
)

func TestExpectationValidate(t *testing.T) {
	tests := []struct {
		name    string
		exp     Expectation
		wantErr bool
	}{
		{"zero", Expectation{}, false},
		{"typical", Expectation{ExpectedSNRMin: 45, ExpectedBitrateTolerance: 0.1, TestStandard: "EBU R128"}, false},
		{"tolerance one", Expectation{ExpectedBitrateTolerance: 1}, false},
		{"tolerance above one", Expectation{ExpectedBitrateTolerance: 1.5}, true},
		{"negative tolerance", Expectation{ExpectedBitrateTolerance: -0.1}, true},
		{"negative variation", Expectation{MaxVariationDB: -3}, true},
		{"negative thd", Expectation{ExpectedTHDMax: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.exp.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrInvalidArgument) {
				t.Fatalf("Validate() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestWriteJSONIndentAndOmitEmpty(t *testing.T) {
	doc := Expectations{
		"quality_tests": {
			"complex_harmonic": {ExpectedSNRMin: 38, ExpectedTHDMax: 0.5},
		},
	}

	path := filepath.Join(t.TempDir(), "ref", "test_expectations.json")
	if err := (Writer{}).WriteJSON(path, doc); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "\n  \"quality_tests\": {\n    \"complex_harmonic\": {") {
		t.Fatalf("unexpected indentation:\n%s", text)
	}
	if strings.Contains(text, "test_standard") || strings.Contains(text, "expected_bitrate_tolerance") {
		t.Fatalf("zero fields not omitted:\n%s", text)
	}

	var back Expectations
	if err := ReadJSON(path, &back); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got := back["quality_tests"]["complex_harmonic"].ExpectedTHDMax; got != 0.5 {
		t.Fatalf("thd = %v, want 0.5", got)
	}
}

func TestWriteJSONRejectsInvalidExpectations(t *testing.T) {
	doc := Expectations{"compliance_tests": {"x": {ExpectedBitrateTolerance: 2}}}
	path := filepath.Join(t.TempDir(), "bad.json")

	err := (Writer{}).WriteJSON(path, doc)
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("WriteJSON() error = %v, want ErrInvalidArgument", err)
	}
	if !strings.Contains(err.Error(), "compliance_tests/x") {
		t.Fatalf("error %q lacks fixture key", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("invalid document was written")
	}
}

func TestDefaultConfigurations(t *testing.T) {
	c := DefaultConfigurations()
	if len(c.SampleRates) != 4 || c.SampleRates[1] != 22050 {
		t.Fatalf("SampleRates = %v", c.SampleRates)
	}
	if len(c.Bitrates) != 6 || c.Bitrates[5] != 256000 {
		t.Fatalf("Bitrates = %v", c.Bitrates)
	}
	if c.QualityLevels[len(c.QualityLevels)-1] != 1.0 {
		t.Fatalf("QualityLevels = %v", c.QualityLevels)
	}
}

func TestInventoryConcurrentAdd(t *testing.T) {
	inv := NewInventory(7, core.BitDepth16.String())
	if _, err := uuid.Parse(inv.RunID); err != nil {
		t.Fatalf("RunID %q is not a UUID: %v", inv.RunID, err)
	}

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv.Add(Fixture{Path: string(rune('a' + 15 - i)), RMSdBFS: []float64{-20}, PeakdBFS: []float64{-17}})
		}()
	}
	wg.Wait()

	if inv.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", inv.Len())
	}
	inv.Sort()
	if inv.Fixtures[0].Path != "a" || inv.Fixtures[15].Path != "p" {
		t.Fatalf("not sorted: first=%q last=%q", inv.Fixtures[0].Path, inv.Fixtures[15].Path)
	}
}

func TestInventorySilenceLevels(t *testing.T) {
	inv := NewInventory(1, "16-bit")
	inv.Add(Fixture{
		Path:     "stereo/stereo_left_only.wav",
		RMSdBFS:  []float64{-6, math.Inf(-1)},
		PeakdBFS: []float64{-3, math.NaN()},
	})

	f, ok := inv.Lookup("stereo/stereo_left_only.wav")
	if !ok {
		t.Fatal("Lookup() missed recorded fixture")
	}
	if f.RMSdBFS[1] != SilenceDB || f.PeakdBFS[1] != SilenceDB {
		t.Fatalf("silent channel levels = %v / %v", f.RMSdBFS, f.PeakdBFS)
	}

	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := (Writer{}).WriteJSON(path, inv); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var back Inventory
	if err := ReadJSON(path, &back); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if back.RunID != inv.RunID || back.Seed != 1 || len(back.Fixtures) != 1 {
		t.Fatalf("round trip mismatch: %+v", back.Fixtures)
	}
}

func TestInventorySpectralTilt(t *testing.T) {
	inv := NewInventory(1, "16-bit")
	flat, broken := 0.0, math.NaN()
	inv.Add(Fixture{Path: "quality/white_noise.wav", SpectralTilt: &flat})
	inv.Add(Fixture{Path: "quality/silence.wav", SpectralTilt: &broken})

	white, _ := inv.Lookup("quality/white_noise.wav")
	if white.SpectralTilt == nil || *white.SpectralTilt != 0 {
		t.Fatalf("white noise tilt = %v, want a recorded 0", white.SpectralTilt)
	}
	if silent, _ := inv.Lookup("quality/silence.wav"); silent.SpectralTilt != nil {
		t.Fatalf("non-finite tilt kept: %v", *silent.SpectralTilt)
	}

	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := (Writer{}).WriteJSON(path, inv); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(raw), `"spectral_tilt_db_per_octave"`); got != 1 {
		t.Fatalf("tilt written %d times, want once:\n%s", got, raw)
	}
}
