package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/brandonscript/auto-m4b/internal/config"
)

// loadConfig resolves the full configuration option table through
// viper's flag/env/file/default precedence into one populated
// config.Config, rather than reading each option ad hoc from wherever
// it's needed.
func loadConfig() (*config.Config, error) {
	cfg := config.Defaults()

	if v := viper.GetString("inbox_dir"); v != "" {
		cfg.InboxDir = v
	}
	if v := viper.GetString("converted_dir"); v != "" {
		cfg.ConvertedDir = v
	}
	if v := viper.GetString("archive_dir"); v != "" {
		cfg.ArchiveDir = v
	}
	if v := viper.GetString("backup_dir"); v != "" {
		cfg.BackupDir = v
	}
	if v := viper.GetString("fix_dir"); v != "" {
		cfg.FixDir = v
	}
	if v := viper.GetString("merge_dir"); v != "" {
		cfg.MergeDir = v
	}
	if v := viper.GetString("build_dir"); v != "" {
		cfg.BuildDir = v
	}
	if v := viper.GetString("trash_dir"); v != "" {
		cfg.TrashDir = v
	}

	if v := viper.GetString("pid_file"); v != "" {
		cfg.PIDFile = v
	}
	if v := viper.GetString("fatal_file"); v != "" {
		cfg.FatalFile = v
	}
	if v := viper.GetString("global_log"); v != "" {
		cfg.GlobalLog = v
	}

	if v := viper.GetInt("cpu_cores"); v > 0 {
		cfg.CPUCores = v
	}
	if v := viper.GetInt("sleeptime"); v > 0 {
		cfg.SleepTime = time.Duration(v) * time.Second
	}
	if v := viper.GetInt("wait_time"); v > 0 {
		cfg.WaitTime = time.Duration(v) * time.Second
	}

	if viper.IsSet("make_backup") {
		cfg.MakeBackup = viper.GetBool("make_backup")
	}
	if viper.IsSet("nas_mode") {
		v := viper.GetBool("nas_mode")
		cfg.NASMode = &v
	}
	if v := viper.GetString("overwrite_mode"); v != "" {
		cfg.OverwriteMode = config.OverwriteMode(v)
	}
	if v := viper.GetString("on_complete"); v != "" {
		cfg.OnComplete = config.OnComplete(v)
	}
	cfg.MatchFilter = viper.GetString("match_filter")
	cfg.SkipCovers = viper.GetBool("skip_covers")
	cfg.UseFilenamesAsChapters = viper.GetBool("use_filenames_as_chapters")
	if exts := viper.GetStringSlice("other_exts"); len(exts) > 0 {
		cfg.OtherExts = exts
	}
	cfg.NoFix = viper.GetBool("no_fix")

	cfg.Debug = viper.GetBool("debug")
	cfg.Test = viper.GetBool("test")
	cfg.NoASCII = viper.GetBool("no_ascii")

	if v := viper.GetString("converter_bin"); v != "" {
		cfg.M4BToolBin = v
	}
	if v := viper.GetString("ffprobe_bin"); v != "" {
		cfg.FFprobeBin = v
	}
	if v := viper.GetString("ffmpeg_bin"); v != "" {
		cfg.FFmpegBin = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
