package testutil

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ones returns n samples of full scale, the unity envelope.
func Ones(n int) []float64 {
	return DC(1.0, n)
}
