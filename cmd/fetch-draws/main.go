// Command fetch-draws downloads a draw listing and stores every table row in
// the all_td sheet of a workbook.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/comborank/internal/adapters/repository"
	"github.com/okian/comborank/internal/fetcher"
	"github.com/okian/comborank/pkg/logger"
)

const (
	defaultFrom     = "096001"
	defaultTo       = "114100"
	defaultOutput   = "td_results.xlsx"
	defaultSheet    = "all_td"
	defaultAttempts = 3
	defaultTimeout  = 5 * time.Minute
)

func main() {
	var (
		entryURL = flag.String("url", fetcher.DefaultEntryURL, "Page holding the search form")
		from     = flag.String("from", defaultFrom, "First period (p1)")
		to       = flag.String("to", defaultTo, "Last period (p2)")
		output   = flag.String("output", defaultOutput, "Workbook to write")
		sheet    = flag.String("sheet", defaultSheet, "Sheet to write")
		attempts = flag.Uint("attempts", defaultAttempts, "Attempts per request")
		format   = flag.String("log-format", logger.FormatText, "Log format: text or json")
		verbose  = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.InitWithOptions(os.Stderr, *format); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Named("fetch-draws")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	f, err := fetcher.New(*entryURL, fetcher.WithAttempts(*attempts), fetcher.WithLogger(log))
	if err != nil {
		log.Error(ctx, "invalid arguments", logger.Error(err))
		os.Exit(2)
	}
	rows, err := f.Fetch(ctx, *from, *to)
	if err != nil {
		log.Error(ctx, "fetch failed", logger.Error(err))
		os.Exit(1)
	}
	if len(rows) == 0 {
		log.Warn(ctx, "no rows found", logger.String("from", *from), logger.String("to", *to))
		return
	}
	if err := repository.WriteGrid(ctx, *output, *sheet, fetcher.Grid(rows)); err != nil {
		log.Error(ctx, "write failed", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "rows saved", logger.Int("rows", len(rows)), logger.String("output", *output), logger.String("sheet", *sheet))
}
