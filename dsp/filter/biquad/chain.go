package biquad

// Chain is an ordered cascade of sections processed in series.
type Chain struct {
	sections []Section
}

// NewChain creates a cascade with one zero-state section per coefficient set.
func NewChain(coeffs ...Coefficients) *Chain {
	c := &Chain{sections: make([]Section, len(coeffs))}
	for i := range coeffs {
		c.sections[i].Coefficients = coeffs[i]
	}

	return c
}

// ProcessSample feeds x through every section in order.
func (c *Chain) ProcessSample(x float64) float64 {
	for i := range c.sections {
		x = c.sections[i].ProcessSample(x)
	}

	return x
}

// ProcessBlock filters buf in place through the full cascade.
func (c *Chain) ProcessBlock(buf []float64) {
	for i := range c.sections {
		c.sections[i].ProcessBlock(buf)
	}
}

// Reset clears every section's delay line.
func (c *Chain) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// NumSections returns the number of sections.
func (c *Chain) NumSections() int {
	return len(c.sections)
}

// Response is the cascade magnitude at normalized angle w.
func (c *Chain) Response(w float64) float64 {
	g := 1.0
	for i := range c.sections {
		g *= c.sections[i].Response(w)
	}

	return g
}
