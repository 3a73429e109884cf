package signal

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-testsignals/dsp/core"
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("signal: "+format+": %w", append(args, core.ErrInvalidArgument)...)
}

func validateFrequency(name string, hz float64) error {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return invalidf("%s must be > 0 and finite: %v", name, hz)
	}
	return nil
}

func validateSeconds(name string, seconds float64) error {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return invalidf("%s must be >= 0 and finite: %v", name, seconds)
	}
	return nil
}
