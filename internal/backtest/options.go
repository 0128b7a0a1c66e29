package backtest

import "github.com/okian/comborank/pkg/logger"

// Option applies a configuration option to the Backtester.
type Option func(*Backtester)

// WithUniverse sets the largest drawable value.
func WithUniverse(n int) Option {
	return func(b *Backtester) {
		if n > 0 {
			b.universe = n
		}
	}
}

// WithNumberLabel sets the fmt pattern of the number headers that mark
// sections, e.g. "號碼%d".
func WithNumberLabel(pattern string) Option {
	return func(b *Backtester) {
		if pattern != "" {
			b.numberLabel = pattern
		}
	}
}

// WithCountSuffix sets what follows a tier label in count headers.
func WithCountSuffix(s string) Option {
	return func(b *Backtester) {
		b.countSuffix = s
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Backtester) {
		if l != nil {
			b.logger = l
		}
	}
}
