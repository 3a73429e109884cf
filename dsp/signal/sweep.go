package signal

import (
	"fmt"
	"math"
)

// SweepMethod selects how the instantaneous frequency of a sweep moves
// from start to end.
type SweepMethod int

const (
	// SweepLogarithmic spends equal time per octave.
	SweepLogarithmic SweepMethod = iota
	// SweepLinear moves at a constant rate in Hz per second.
	SweepLinear
)

func (m SweepMethod) String() string {
	switch m {
	case SweepLogarithmic:
		return "logarithmic"
	case SweepLinear:
		return "linear"
	default:
		return fmt.Sprintf("SweepMethod(%d)", int(m))
	}
}

// FrequencySweep returns a phase-continuous chirp from startHz at t=0 to
// endHz at t=duration.
//
// Both methods integrate the instantaneous frequency in closed form. For the
// logarithmic sweep f(t) = f1*(f2/f1)^(t/T), which gives
//
//	φ(t) = 2π*f1*T/ln(f2/f1) * ((f2/f1)^(t/T) - 1)
//
// and for the linear sweep
//
//	φ(t) = 2π*(f1*t + (f2-f1)*t²/(2T))
//
// A logarithmic sweep needs startHz != endHz.
func (g *Generator) FrequencySweep(startHz, endHz, amplitude float64, method SweepMethod) ([]float64, error) {
	if err := validateFrequency("sweep start frequency", startHz); err != nil {
		return nil, err
	}
	if err := validateFrequency("sweep end frequency", endHz); err != nil {
		return nil, err
	}

	out := make([]float64, g.n)
	T := g.cfg.Duration

	switch method {
	case SweepLogarithmic:
		if startHz == endHz {
			return nil, invalidf("logarithmic sweep needs distinct endpoints: %v Hz", startHz)
		}
		ratio := endHz / startHz
		lnRatio := math.Log(ratio)
		k := 2 * math.Pi * startHz * T / lnRatio
		for i, t := range g.t {
			out[i] = amplitude * math.Sin(k*(math.Exp(t/T*lnRatio)-1))
		}
	case SweepLinear:
		rate := (endHz - startHz) / T
		for i, t := range g.t {
			out[i] = amplitude * math.Sin(2*math.Pi*(startHz*t+0.5*rate*t*t))
		}
	default:
		return nil, invalidf("unknown sweep method %v", method)
	}

	return out, nil
}
