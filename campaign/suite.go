package campaign

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cwbudde/algo-testsignals/dsp/core"
)

// Suite names a group of fixtures.
type Suite string

// Known suites.
const (
	Compliance Suite = "compliance"
	Quality    Suite = "quality"
	Stereo     Suite = "stereo"
	Stress     Suite = "stress"
)

// All selects every suite when passed to ParseSuites.
const All = "all"

// Suites returns every suite in rendering order.
func Suites() []Suite {
	return []Suite{Compliance, Quality, Stereo, Stress}
}

func (s Suite) index() int {
	return slices.Index(Suites(), s)
}

// Valid reports whether s is a known suite.
func (s Suite) Valid() bool {
	return s.index() >= 0
}

// ParseSuites resolves suite names. "all" expands to every suite. The
// result is deduplicated and in rendering order.
func ParseSuites(names []string) ([]Suite, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("campaign: no suites selected: %w", core.ErrInvalidArgument)
	}

	selected := make(map[Suite]bool, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == All {
			for _, s := range Suites() {
				selected[s] = true
			}
			continue
		}
		s := Suite(name)
		if !s.Valid() {
			return nil, fmt.Errorf("campaign: unknown suite %q: %w", raw, core.ErrInvalidArgument)
		}
		selected[s] = true
	}

	out := make([]Suite, 0, len(selected))
	for _, s := range Suites() {
		if selected[s] {
			out = append(out, s)
		}
	}
	return out, nil
}
