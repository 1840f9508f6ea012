package dedupe

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of remembered names. Once full, the oldest
// name is forgotten. maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithCaseInsensitive treats names differing only in case as equal.
func WithCaseInsensitive() Option {
	return func(d *inMemoryDeduper) {
		d.foldCase = true
	}
}

// WithTrimSpace ignores leading and trailing whitespace in names.
func WithTrimSpace() Option {
	return func(d *inMemoryDeduper) {
		d.trimSpaces = true
	}
}
