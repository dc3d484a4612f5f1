package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/brandonscript/auto-m4b/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the fully-resolved configuration and exit",
	Long: `Resolve every option through the same flag/env/file/default
precedence the watcher uses and print the result as YAML, for verifying
what a run would actually use before starting it.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	out, err := yaml.Marshal(configView(cfg))
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

// configView flattens config.Config into a plain map so the printed YAML
// uses the same option names as the flags/env vars that set them,
// instead of the struct's Go field names.
func configView(cfg *config.Config) map[string]any {
	return map[string]any{
		"inbox_dir":                 cfg.InboxDir,
		"converted_dir":             cfg.ConvertedDir,
		"archive_dir":               cfg.ArchiveDir,
		"backup_dir":                cfg.BackupDir,
		"fix_dir":                   cfg.FixDir,
		"merge_dir":                 cfg.MergeDir,
		"build_dir":                 cfg.BuildDir,
		"trash_dir":                 cfg.TrashDir,
		"pid_file":                  cfg.PIDFile,
		"fatal_file":                cfg.FatalFile,
		"global_log":                cfg.GlobalLog,
		"cpu_cores":                 cfg.CPUCores,
		"sleeptime":                 cfg.SleeptimeFriendly(),
		"wait_time":                 cfg.WaitTime.String(),
		"make_backup":               cfg.MakeBackup,
		"overwrite_mode":            cfg.OverwriteMode,
		"on_complete":               cfg.OnComplete,
		"match_filter":              cfg.MatchFilter,
		"skip_covers":               cfg.SkipCovers,
		"use_filenames_as_chapters": cfg.UseFilenamesAsChapters,
		"other_exts":                cfg.OtherExts,
		"no_fix":                    cfg.NoFix,
		"debug":                     cfg.Debug,
		"test":                      cfg.Test,
		"no_ascii":                  cfg.NoASCII,
		"converter_bin":             cfg.M4BToolBin,
		"ffprobe_bin":               cfg.FFprobeBin,
		"ffmpeg_bin":                cfg.FFmpegBin,
		"nas_mode":                  nasModeView(cfg.NASMode),
	}
}

// nasModeView renders the tri-state NASMode as "auto"/"true"/"false"
// instead of Go's *bool zero-value ambiguity.
func nasModeView(mode *bool) string {
	if mode == nil {
		return "auto"
	}
	if *mode {
		return "true"
	}
	return "false"
}
