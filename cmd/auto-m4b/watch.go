package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brandonscript/auto-m4b/internal/bookerr"
	"github.com/brandonscript/auto-m4b/internal/config"
	"github.com/brandonscript/auto-m4b/internal/report"
	"github.com/brandonscript/auto-m4b/internal/state"
	"github.com/brandonscript/auto-m4b/internal/util"
	"github.com/brandonscript/auto-m4b/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the inbox folder and convert books as they arrive",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		fatalErr := &bookerr.FatalProcessError{Reason: "config unusable", Err: err}
		_ = state.WriteFatalFile(config.Defaults().FatalFile, fatalErr)
		return fatalErr
	}

	if state.IsRunning(cfg.PIDFile) {
		return fmt.Errorf("auto-m4b is already running against %s (see %s)", cfg.InboxDir, cfg.PIDFile)
	}
	if err := state.WritePIDFile(cfg.PIDFile, cfg.InboxDir); err != nil {
		fatalErr := &bookerr.FatalProcessError{Reason: "pid file unwritable", Err: err}
		_ = state.WriteFatalFile(cfg.FatalFile, fatalErr)
		return fatalErr
	}
	defer state.RemovePIDFile(cfg.PIDFile)

	logger, err := report.NewEventLogger(cfg.TrashDir, report.LevelInfo)
	if err != nil {
		util.WarnLog("could not open structured event log, continuing without one: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w := watch.New(cfg, logger)
	util.InfoLog("auto-m4b started, watching %s", cfg.InboxDir)

	if err := w.Run(ctx); err != nil {
		if ctx.Err() != nil {
			util.InfoLog("shutting down")
			return nil
		}
		if bookerr.IsFatal(err) {
			_ = state.WriteFatalFile(cfg.FatalFile, err)
		}
		return err
	}
	return nil
}
