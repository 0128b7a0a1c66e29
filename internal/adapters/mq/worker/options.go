package worker

import (
	"github.com/okian/comborank/internal/adapters/mq/queue"
	"github.com/okian/comborank/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithLogger sets a custom logger for the pool and its workers.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBufferPool recycles batch buffers through bp.
func WithBufferPool(bp *queue.BufferPool) Option {
	return func(p *Pool) {
		if bp != nil {
			p.buffers = bp
		}
	}
}

// WithProgressLogEvery logs progress every n batches. Zero disables it.
func WithProgressLogEvery(n int) Option {
	return func(p *Pool) {
		if n >= 0 {
			p.logEvery = int64(n)
		}
	}
}
