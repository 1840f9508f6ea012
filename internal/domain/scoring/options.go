package scoring

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithMinVotes sets the confidence constant m. Negative values are kept so
// Apply can reject them.
func WithMinVotes(m float64) Option {
	return func(c *Calculator) {
		c.minVotes = m
	}
}

// WithPolicy sets how the global mean is computed.
func WithPolicy(p MeanPolicy) Option {
	return func(c *Calculator) {
		c.policy = p
	}
}

// WithFixedMean sets the constant used by MeanFixed.
func WithFixedMean(mean float64) Option {
	return func(c *Calculator) {
		c.fixedMean = mean
	}
}
