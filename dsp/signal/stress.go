package signal

import "math"

// DefaultSegment is the segment length used by RapidContentChanges.
const DefaultSegment = 0.1

// RapidContentChanges returns a stress signal that switches content every
// segment seconds, cycling through
//
//	0: 1 kHz sine at 0.3
//	1: white noise at 0.1
//	2: a single 0.8 impulse on the segment's first sample
//	3: a chirp from 100 Hz to min(8 kHz, sampleRate/4) at 0.3
//	4: silence
//
// Each segment restarts its own local time at zero. The chirp segment is
// sin(2π*f(t)*t) with f(t) linear over the segment, which is not phase
// continuous and sweeps to twice its nominal end frequency; the encoder under
// test sees exactly this waveform in the reference fixtures.
func (g *Generator) RapidContentChanges(segment float64) ([]float64, error) {
	if segment <= 0 || math.IsNaN(segment) || math.IsInf(segment, 0) {
		return nil, invalidf("segment length must be > 0 and finite: %v", segment)
	}
	segLen := g.sampleSpan(segment)
	if segLen <= 0 {
		return nil, invalidf("segment %v is shorter than one sample at %d Hz", segment, g.cfg.SampleRate)
	}

	chirpEnd := math.Min(8000, float64(g.cfg.SampleRate/4))

	out := make([]float64, g.n)
	for start, idx := 0, 0; start < g.n; start, idx = start+segLen, idx+1 {
		end := min(start+segLen, g.n)
		seg := out[start:end]
		span := float64(len(seg)) / g.rate

		switch idx % 5 {
		case 0:
			for j := range seg {
				seg[j] = 0.3 * math.Sin(2*math.Pi*1000*float64(j)/g.rate)
			}
		case 1:
			for j := range seg {
				seg[j] = 0.1 * g.rng.NormFloat64()
			}
		case 2:
			seg[0] = 0.8
		case 3:
			for j := range seg {
				t := float64(j) / g.rate
				f := 100 + (chirpEnd-100)*t/span
				seg[j] = 0.3 * math.Sin(2*math.Pi*f*t)
			}
		}
	}
	return out, nil
}
