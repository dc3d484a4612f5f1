package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brandonscript/auto-m4b/internal/report"
	"github.com/brandonscript/auto-m4b/internal/util"
	"github.com/brandonscript/auto-m4b/internal/watch"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single pass over the inbox and exit",
	Long: `Run exactly one tick of the watch loop: promote standalone files, scan
for candidate books, and process every one that matches the configured
filter, then exit instead of looping.`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := report.NewEventLogger(cfg.TrashDir, report.LevelInfo)
	if err != nil {
		util.WarnLog("could not open structured event log, continuing without one: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()

	w := watch.New(cfg, logger)
	if err := w.Tick(cmd.Context(), true); err != nil {
		return err
	}
	util.InfoLog("done")
	return nil
}
