package editor

import (
	"time"

	"github.com/okian/comborank/pkg/logger"
)

// Option applies a configuration option to the Coordinator.
type Option func(*Coordinator)

// WithEnabled turns coordination on or off.
func WithEnabled(enabled bool) Option {
	return func(c *Coordinator) {
		c.enabled = enabled
	}
}

// WithCloseCommand overrides the platform close command. The command is
// split like a shell would; {path} and {name} are substituted per argument.
func WithCloseCommand(cmd string) Option {
	return func(c *Coordinator) {
		if cmd != "" {
			c.closeCmd = cmd
		}
	}
}

// WithReopenCommand overrides the platform reopen command.
func WithReopenCommand(cmd string) Option {
	return func(c *Coordinator) {
		if cmd != "" {
			c.reopenCmd = cmd
		}
	}
}

// WithSettleDelay sets how long Release waits after closing.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.settle = d
		}
	}
}

// WithAttempts sets how many times a command is tried.
func WithAttempts(n uint) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithRetryDelay sets the base delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithRunner replaces command execution.
func WithRunner(r Runner) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.run = r
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}
