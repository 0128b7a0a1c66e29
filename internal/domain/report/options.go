package report

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithNumberLabel sets the fmt pattern of the number column headers; it
// receives the 1-based column position.
func WithNumberLabel(pattern string) Option {
	return func(a *Assembler) {
		if pattern != "" {
			a.numberLabel = pattern
		}
	}
}

// WithRecencyLabel sets the header of the recency column.
func WithRecencyLabel(label string) Option {
	return func(a *Assembler) {
		if label != "" {
			a.recencyLabel = label
		}
	}
}

// WithMaxGapLabel sets the header of the MaxGap column.
func WithMaxGapLabel(label string) Option {
	return func(a *Assembler) {
		if label != "" {
			a.maxGapLabel = label
		}
	}
}
