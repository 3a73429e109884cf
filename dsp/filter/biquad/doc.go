// Package biquad runs second-order IIR sections in Direct Form II
// Transposed, alone ([Section]) or cascaded ([Chain]).
//
// Coefficient design lives in dsp/filter/design.
package biquad
