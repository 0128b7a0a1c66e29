// Package editor asks a desktop spreadsheet application to let go of the
// output workbook before it is rewritten, and to show it again afterwards.
//
// Coordination is best effort: failures are logged and counted, never
// returned, and never abort a run.
package editor

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/kballard/go-shellquote"

	"github.com/okian/comborank/pkg/logger"
	"github.com/okian/comborank/pkg/metrics"
)

const (
	defaultAttempts   = 3
	defaultRetryDelay = 100 * time.Millisecond
	defaultSettle     = 200 * time.Millisecond
)

// Runner executes a command.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Coordinator runs the configured release and reopen commands.
type Coordinator struct {
	enabled    bool
	closeCmd   string
	reopenCmd  string
	closeArgv  []string
	reopenArgv []string
	attempts   uint
	retryDelay time.Duration
	settle     time.Duration
	run        Runner
	logger     logger.Logger
}

// New builds a Coordinator. Commands are parsed up front so a malformed
// template is a configuration error.
func New(opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		enabled:    true,
		closeCmd:   defaultCloseCommand,
		reopenCmd:  defaultReopenCommand,
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
		settle:     defaultSettle,
		run:        execRunner,
		logger:     logger.Get().Named("editor"),
	}
	for _, opt := range opts {
		opt(c)
	}
	var err error
	if c.closeArgv, err = split(c.closeCmd); err != nil {
		return nil, err
	}
	if c.reopenArgv, err = split(c.reopenCmd); err != nil {
		return nil, err
	}
	return c, nil
}

func split(cmd string) ([]string, error) {
	if strings.TrimSpace(cmd) == "" {
		return nil, nil
	}
	argv, err := shellquote.Split(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidCommand, cmd, err)
	}
	return argv, nil
}

// Release closes path in its editor and waits for the editor to settle.
func (c *Coordinator) Release(ctx context.Context, path string) {
	if c.do(ctx, "release", c.closeArgv, path) {
		select {
		case <-time.After(c.settle):
		case <-ctx.Done():
		}
	}
}

// Reopen opens path in its editor again.
func (c *Coordinator) Reopen(ctx context.Context, path string) {
	c.do(ctx, "reopen", c.reopenArgv, path)
}

// do runs argv with placeholders expanded and reports whether it ran
// successfully.
func (c *Coordinator) do(ctx context.Context, action string, argv []string, path string) bool {
	if !c.enabled {
		return false
	}
	if len(argv) == 0 {
		c.logger.Debug(ctx, "no editor command configured", logger.String("action", action))
		return false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	r := strings.NewReplacer("{path}", abs, "{name}", filepath.Base(abs))
	args := make([]string, len(argv)-1)
	for i, a := range argv[1:] {
		args[i] = r.Replace(a)
	}

	err = retry.Do(
		func() error { return c.run(ctx, argv[0], args...) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug(ctx, "editor command failed, retrying",
				logger.String("action", action), logger.Int("attempt", int(n)+1), logger.Error(err))
		}),
	)
	if err != nil {
		metrics.RecordCoordinationFailure(action)
		c.logger.Warn(ctx, "editor coordination failed",
			logger.String("action", action), logger.String("path", abs), logger.Error(err))
		return false
	}
	return true
}
