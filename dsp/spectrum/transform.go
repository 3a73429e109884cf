package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Transform computes n-point forward and inverse DFTs.
//
// The forward transform is unnormalized, X[k] = sum x[j] exp(-2πi jk/n);
// the inverse divides by n. Only the plan's forward direction is used, so
// the scaling does not depend on the backend's inverse convention.
//
// A Transform owns scratch buffers and must not be used concurrently.
type Transform struct {
	n    int
	m    int
	plan *algofft.Plan[complex128]

	// Bluestein state, nil for power-of-two lengths.
	chirp  []complex128
	kernel []complex128
	work   []complex128

	tmp []complex128
}

// NewTransform prepares a transform of length n.
func NewTransform(n int) (*Transform, error) {
	if n <= 0 {
		return nil, fmt.Errorf("spectrum: transform length must be > 0: %d", n)
	}

	t := &Transform{n: n, tmp: make([]complex128, n)}
	if n == 1 {
		t.m = 1
		return t, nil
	}

	if isPowerOf2(n) {
		plan, err := algofft.NewPlan64(n)
		if err != nil {
			return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
		}
		t.m = n
		t.plan = plan
		return t, nil
	}

	m := nextPowerOf2(2*n - 1)
	plan, err := algofft.NewPlan64(m)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	// chirp[j] = exp(-iπ j²/n). j² is reduced mod 2n in integers to keep the
	// angle exact for long fixtures.
	chirp := make([]complex128, n)
	twoN := int64(2 * n)
	for j := range chirp {
		q := (int64(j) * int64(j)) % twoN
		angle := math.Pi * float64(q) / float64(n)
		chirp[j] = complex(math.Cos(angle), -math.Sin(angle))
	}

	b := make([]complex128, m)
	b[0] = cmplx.Conj(chirp[0])
	for j := 1; j < n; j++ {
		c := cmplx.Conj(chirp[j])
		b[j] = c
		b[m-j] = c
	}

	kernel := make([]complex128, m)
	if err := plan.Forward(kernel, b); err != nil {
		return nil, fmt.Errorf("spectrum: kernel FFT failed: %w", err)
	}

	t.m = m
	t.plan = plan
	t.chirp = chirp
	t.kernel = kernel
	t.work = make([]complex128, m)
	return t, nil
}

// Len returns the transform length.
func (t *Transform) Len() int { return t.n }

// PaddedLen returns the size of the underlying power-of-two plan.
func (t *Transform) PaddedLen() int { return t.m }

// Forward computes the DFT of src into dst. dst and src may alias.
func (t *Transform) Forward(dst, src []complex128) error {
	if len(dst) != t.n || len(src) != t.n {
		return fmt.Errorf("spectrum: forward length mismatch: dst=%d src=%d want %d", len(dst), len(src), t.n)
	}

	switch {
	case t.n == 1:
		dst[0] = src[0]
		return nil
	case t.chirp == nil:
		if err := t.plan.Forward(dst, src); err != nil {
			return fmt.Errorf("spectrum: forward FFT failed: %w", err)
		}
		return nil
	default:
		return t.bluestein(dst, src)
	}
}

// Inverse computes the normalized inverse DFT of src into dst. dst and src
// may alias.
func (t *Transform) Inverse(dst, src []complex128) error {
	if len(dst) != t.n || len(src) != t.n {
		return fmt.Errorf("spectrum: inverse length mismatch: dst=%d src=%d want %d", len(dst), len(src), t.n)
	}

	for i, v := range src {
		t.tmp[i] = cmplx.Conj(v)
	}
	if err := t.Forward(t.tmp, t.tmp); err != nil {
		return err
	}

	scale := 1 / float64(t.n)
	for i, v := range t.tmp {
		dst[i] = complex(real(v)*scale, -imag(v)*scale)
	}
	return nil
}

func (t *Transform) bluestein(dst, src []complex128) error {
	for j := 0; j < t.n; j++ {
		t.work[j] = src[j] * t.chirp[j]
	}
	for j := t.n; j < t.m; j++ {
		t.work[j] = 0
	}

	if err := t.plan.Forward(t.work, t.work); err != nil {
		return fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}
	for k := range t.work {
		t.work[k] = cmplx.Conj(t.work[k] * t.kernel[k])
	}

	// Circular convolution back to time: conj(FFT(conj(.)))/m.
	if err := t.plan.Forward(t.work, t.work); err != nil {
		return fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}

	scale := 1 / float64(t.m)
	for k := 0; k < t.n; k++ {
		v := cmplx.Conj(t.work[k])
		dst[k] = t.chirp[k] * complex(real(v)*scale, imag(v)*scale)
	}
	return nil
}

// DFT returns the spectrum of a real signal.
func DFT(x []float64) ([]complex128, error) {
	t, err := NewTransform(len(x))
	if err != nil {
		return nil, err
	}

	out := make([]complex128, len(x))
	for i, v := range x {
		out[i] = complex(v, 0)
	}
	if err := t.Forward(out, out); err != nil {
		return nil, err
	}
	return out, nil
}

func isPowerOf2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
