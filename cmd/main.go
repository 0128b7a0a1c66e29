// Command comborank ranks every combination of a draw universe against the
// draw history in a workbook and writes the per-tier tables back to it.
//
//	comborank <range-spec> <combo_size> <output-path> [top_n] [max_gap_limit]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/comborank/internal/adapters/editor"
	"github.com/okian/comborank/internal/adapters/http/api"
	"github.com/okian/comborank/internal/adapters/http/swagger"
	"github.com/okian/comborank/internal/adapters/repository"
	app "github.com/okian/comborank/internal/app"
	"github.com/okian/comborank/internal/config"
	"github.com/okian/comborank/pkg/logger"
	"github.com/okian/comborank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

// Exit statuses.
const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
)

const usage = "usage: comborank <range-spec> <combo_size> <output-path> [top_n] [max_gap_limit]"

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	// We collect our own system metrics instead of the default collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Defaults -> optional file -> env -> positional arguments.
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return exitUsage
	}
	if err := applyArgs(cfg, args); err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, usage)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if err := logger.InitWithOptions(stderr, cfg.LogFormat); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	ed, err := editor.New(
		editor.WithEnabled(cfg.Editor.Enabled),
		editor.WithCloseCommand(cfg.Editor.CloseCommand),
		editor.WithReopenCommand(cfg.Editor.ReopenCommand),
		editor.WithSettleDelay(cfg.Editor.SettleDelay),
		editor.WithAttempts(cfg.Editor.Attempts),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	svc := app.New(cfg, app.WithEditor(ed), app.WithLogger(log.Named("service")))

	go startSystemMetricsUpdater(ctx)

	var srv *http.Server
	if cfg.StatusAddr != "" {
		srv = startStatusServer(ctx, cfg.StatusAddr, svc, log)
		defer shutdown(srv, log)
	}

	if _, err := svc.Run(ctx); err != nil {
		fmt.Fprintln(stderr, "comborank:", err)
		return exitCode(err)
	}

	if srv != nil {
		log.Info(ctx, "run finished; serving status until interrupted", logger.String("addr", cfg.StatusAddr))
		<-ctx.Done()
	}
	return exitOK
}

// applyArgs overrides cfg with the positional arguments.
func applyArgs(cfg *config.Config, args []string) error {
	if len(args) < 3 || len(args) > 5 {
		return fmt.Errorf("%w: expected 3 to 5 arguments, got %d", config.ErrInvalidConfig, len(args))
	}
	cfg.RangeSpec = args[0]
	cfg.OutputPath = args[2]

	ints := []struct {
		name string
		dst  *int
	}{
		{"combo_size", &cfg.ComboSize},
		{"top_n", &cfg.TopN},
		{"max_gap_limit", &cfg.MaxGapLimit},
	}
	values := append([]string{args[1]}, args[3:]...)
	for i, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s %q is not an integer", config.ErrInvalidConfig, ints[i].name, v)
		}
		*ints[i].dst = n
	}
	return nil
}

// exitCode maps configuration problems to exitUsage and everything else to
// exitRuntime.
func exitCode(err error) int {
	for _, target := range []error{
		config.ErrInvalidConfig,
		repository.ErrInvalidRange,
		repository.ErrSheetNotFound,
	} {
		if errors.Is(err, target) {
			return exitUsage
		}
	}
	return exitRuntime
}

func startStatusServer(ctx context.Context, addr string, svc *app.Service, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "starting status server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "status server failed", logger.Error(err))
		}
	}()
	return srv
}

func shutdown(srv *http.Server, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(ctx, "status server shutdown failed", logger.Error(err))
	}
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
