package loudness

import (
	"math"

	"github.com/cwbudde/algo-testsignals/dsp/filter/biquad"
	"github.com/cwbudde/algo-testsignals/dsp/filter/design"
)

// K-weighting stage parameters (BS.1770 pre-filter and RLB high-pass).
const (
	kWeightingShelfFreq = 1500.0
	kWeightingShelfGain = 4.0
	kWeightingHpfFreq   = 38.0
)

// newKWeighting returns one channel's shelf then high-pass cascade.
func newKWeighting(sampleRate float64) *biquad.Chain {
	q := 1 / math.Sqrt2
	return biquad.NewChain(
		design.HighShelf(kWeightingShelfFreq, kWeightingShelfGain, q, sampleRate),
		design.Highpass(kWeightingHpfFreq, q, sampleRate),
	)
}
