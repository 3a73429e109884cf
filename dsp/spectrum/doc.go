// Package spectrum provides the frequency-domain plumbing used by the
// signal generators and fixture statistics.
//
// [Transform] computes exact DFTs of any length. Power-of-two lengths go
// straight to an algo-fft plan; other lengths use Bluestein's chirp-z
// algorithm on a power-of-two plan, so noise shaping over a whole fixture
// (for example 480000 samples) needs no padding or truncation.
package spectrum
