package manifest

import (
	"cmp"
	"math"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// SilenceDB is recorded in place of -Inf for channels without signal, since
// JSON has no encoding for infinities.
const SilenceDB = -200.0

// Fixture describes one written file.
type Fixture struct {
	Path       string    `json:"path"`
	Suite      string    `json:"suite"`
	Name       string    `json:"name"`
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"`
	Frames     int       `json:"frames"`
	Duration   float64   `json:"duration_s"`
	RMSdBFS    []float64 `json:"rms_dbfs"`
	PeakdBFS   []float64 `json:"peak_dbfs"`
	// IntegratedLUFS is the gated programme loudness over all channels.
	IntegratedLUFS float64 `json:"integrated_lufs"`
	// THD and THDN are recorded for single-fundamental fixtures, measured on
	// the first channel.
	THD  float64 `json:"thd,omitempty"`
	THDN float64 `json:"thd_n,omitempty"`
	// PeakHz is the strongest spectral line of a tonal fixture.
	PeakHz float64 `json:"peak_hz,omitempty"`
	// SpectralTilt is the octave-band slope of a noise fixture in dB per
	// octave: about 0 for white noise, about -3 for pink.
	SpectralTilt *float64 `json:"spectral_tilt_db_per_octave,omitempty"`
}

// Inventory lists the fixtures of one campaign run. Add is safe for
// concurrent use.
type Inventory struct {
	RunID    string    `json:"run_id"`
	Seed     uint64    `json:"seed"`
	BitDepth string    `json:"bit_depth"`
	Fixtures []Fixture `json:"fixtures"`

	mu sync.Mutex
}

// NewInventory starts an inventory with a fresh run ID.
func NewInventory(seed uint64, bitDepth string) *Inventory {
	return &Inventory{
		RunID:    uuid.NewString(),
		Seed:     seed,
		BitDepth: bitDepth,
		Fixtures: []Fixture{},
	}
}

// Add records f. Non-finite levels are replaced by SilenceDB.
func (inv *Inventory) Add(f Fixture) {
	f.RMSdBFS = finiteLevels(f.RMSdBFS)
	f.PeakdBFS = finiteLevels(f.PeakdBFS)
	f.IntegratedLUFS = finiteLevel(f.IntegratedLUFS)
	if f.SpectralTilt != nil && (math.IsNaN(*f.SpectralTilt) || math.IsInf(*f.SpectralTilt, 0)) {
		f.SpectralTilt = nil
	}

	inv.mu.Lock()
	inv.Fixtures = append(inv.Fixtures, f)
	inv.mu.Unlock()
}

// Len returns the number of recorded fixtures.
func (inv *Inventory) Len() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return len(inv.Fixtures)
}

// Sort orders fixtures by path so documents are stable across runs.
func (inv *Inventory) Sort() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	slices.SortFunc(inv.Fixtures, func(a, b Fixture) int {
		return cmp.Compare(a.Path, b.Path)
	})
}

// Lookup returns the fixture recorded under path.
func (inv *Inventory) Lookup(path string) (Fixture, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, f := range inv.Fixtures {
		if f.Path == path {
			return f, true
		}
	}
	return Fixture{}, false
}

func finiteLevels(levels []float64) []float64 {
	out := make([]float64, len(levels))
	for i, v := range levels {
		out[i] = finiteLevel(v)
	}
	return out
}

func finiteLevel(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < SilenceDB {
		return SilenceDB
	}
	return v
}
