// Package design computes RBJ cookbook biquad coefficients for
// dsp/filter/biquad.
package design
