// Command backtest re-scores the combinations of a ranking sheet against the
// draws of another sheet in the same workbook and writes the hit counts to
// the 回測結果 sheet.
//
//	backtest <workbook> <draws-sheet> <column-range> <prize-sheet>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/comborank/internal/adapters/editor"
	"github.com/okian/comborank/internal/adapters/repository"
	"github.com/okian/comborank/internal/backtest"
	"github.com/okian/comborank/internal/config"
	"github.com/okian/comborank/pkg/logger"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
)

const usage = "usage: backtest <workbook> <draws-sheet> <column-range> <prize-sheet>"

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	if len(args) != 4 {
		fmt.Fprintln(stderr, usage)
		return exitUsage
	}
	path, drawsSheet, colRange, prizeSheet := args[0], args[1], args[2], args[3]
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(stderr, "workbook not found:", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return exitUsage
	}
	ladder, err := cfg.Ladder()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if err := logger.InitWithOptions(stderr, cfg.LogFormat); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return exitUsage
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Named("backtest")

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

	b := backtest.New(path, ladder,
		backtest.WithUniverse(cfg.UniverseSize),
		backtest.WithNumberLabel(cfg.NumberLabel),
		backtest.WithLogger(log),
	)

	ed.Release(ctx, path)
	defer ed.Reopen(context.WithoutCancel(ctx), path)

	res, err := b.Run(ctx, drawsSheet, colRange, prizeSheet)
	if err != nil {
		fmt.Fprintln(stderr, "backtest:", err)
		return exitCode(err)
	}
	if err := b.Write(ctx, res); err != nil {
		fmt.Fprintln(stderr, "backtest:", err)
		return exitRuntime
	}
	log.Info(ctx, "backtest written",
		logger.String("sheet", backtest.ResultSheet),
		logger.Int("sections", len(res.Sections)),
		logger.Int("draws", res.Draws),
	)
	return exitOK
}

func exitCode(err error) int {
	for _, target := range []error{
		backtest.ErrSectionMarkers,
		backtest.ErrComboSize,
		repository.ErrInvalidRange,
		repository.ErrSheetNotFound,
	} {
		if errors.Is(err, target) {
			return exitUsage
		}
	}
	return exitRuntime
}
