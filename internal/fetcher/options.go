package fetcher

import (
	"net/http"
	"time"

	"github.com/okian/comborank/pkg/logger"
)

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default cookie-keeping client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithAttempts sets how many times each request is tried.
func WithAttempts(n uint) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithRetryDelay sets the base back-off delay.
func WithRetryDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.retryDelay = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}
