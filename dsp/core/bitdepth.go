package core

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks every rejected input across the module. Callers
// match it with errors.Is; there is no retryable failure mode.
var ErrInvalidArgument = errors.New("invalid argument")

// BitDepth identifies the sample format of a quantized buffer.
type BitDepth int

const (
	BitDepth16 BitDepth = iota + 1
	BitDepth24
	BitDepthFloat32
)

// ParseBitDepth maps a bit count (16, 24 or 32) to a BitDepth. 32 selects
// IEEE float.
func ParseBitDepth(bits int) (BitDepth, error) {
	switch bits {
	case 16:
		return BitDepth16, nil
	case 24:
		return BitDepth24, nil
	case 32:
		return BitDepthFloat32, nil
	default:
		return 0, fmt.Errorf("bit depth must be 16, 24 or 32: %d: %w", bits, ErrInvalidArgument)
	}
}

// Valid reports whether d is one of the supported depths.
func (d BitDepth) Valid() bool {
	return d >= BitDepth16 && d <= BitDepthFloat32
}

// Bits returns the container width in bits.
func (d BitDepth) Bits() int {
	switch d {
	case BitDepth16:
		return 16
	case BitDepth24:
		return 24
	case BitDepthFloat32:
		return 32
	default:
		return 0
	}
}

// MaxValue returns the full-scale multiplier used during quantization.
func (d BitDepth) MaxValue() float64 {
	switch d {
	case BitDepth16:
		return 32767
	case BitDepth24:
		return 8388607
	case BitDepthFloat32:
		return 1
	default:
		return 0
	}
}

// IsFloat reports whether samples are stored as IEEE float.
func (d BitDepth) IsFloat() bool {
	return d == BitDepthFloat32
}

func (d BitDepth) String() string {
	switch d {
	case BitDepth16:
		return "16-bit"
	case BitDepth24:
		return "24-bit"
	case BitDepthFloat32:
		return "float32"
	default:
		return fmt.Sprintf("BitDepth(%d)", int(d))
	}
}
