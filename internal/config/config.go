// Package config holds the process-wide configuration for auto-m4b.
//
// It is populated once at startup (cmd/auto-m4b) via viper and then passed
// by reference to every component, rather than being read as a global
// singleton from inside each package (see DESIGN.md, "explicit process-wide
// state").
package config

import (
	"fmt"
	"regexp"
	"runtime"
	"time"
)

// OverwriteMode controls what happens when a converted artifact already
// exists for a book.
type OverwriteMode string

const (
	OverwriteSkip      OverwriteMode = "skip"
	OverwriteOverwrite OverwriteMode = "overwrite"
)

// OnComplete controls what happens to a book's inbox directory after a
// successful publish.
type OnComplete string

const (
	OnCompleteMove       OnComplete = "move"
	OnCompleteDelete     OnComplete = "delete"
	OnCompleteDoNothing  OnComplete = "test_do_nothing"
)

// Config is the fully-resolved, validated configuration for one run of
// the watcher.
type Config struct {
	// Stage roots
	InboxDir     string
	ConvertedDir string
	ArchiveDir   string
	BackupDir    string
	FixDir       string
	MergeDir     string
	BuildDir     string
	TrashDir     string

	// PID / sentinel files, and the global append-only log
	PIDFile    string
	FatalFile  string
	GlobalLog  string

	CPUCores int
	SleepTime time.Duration
	WaitTime  time.Duration

	MakeBackup      bool
	OverwriteMode   OverwriteMode
	OnComplete      OnComplete
	MatchFilter     string
	SkipCovers      bool
	UseFilenamesAsChapters bool
	OtherExts       []string
	NoFix           bool

	Debug   bool
	Test    bool
	NoASCII bool

	// External tool overrides
	M4BToolBin string
	FFprobeBin string
	FFmpegBin  string

	// NASMode, when non-nil, forces NAS-tuned retry/buffer behavior on or
	// off instead of auto-detecting (see internal/util.AutoTuneForPath).
	NASMode *bool

	matchRe *regexp.Regexp
}

// Defaults returns a Config with every field set to auto-m4b's documented
// defaults.
func Defaults() *Config {
	return &Config{
		InboxDir:     "/media/inbox",
		ConvertedDir: "/media/converted",
		ArchiveDir:   "/media/archive",
		BackupDir:    "/media/backup",
		FixDir:       "/media/fix",
		MergeDir:     "/media/merge",
		BuildDir:     "/media/build",
		TrashDir:     "/media/trash",

		PIDFile:   "/tmp/auto-m4b.pid",
		FatalFile: "/tmp/auto-m4b.fatal",
		GlobalLog: "/tmp/auto-m4b.log",

		CPUCores:  runtime.NumCPU(),
		SleepTime: 10 * time.Second,
		WaitTime:  2 * time.Minute,

		MakeBackup:    true,
		OverwriteMode: OverwriteSkip,
		OnComplete:    OnCompleteMove,
		OtherExts:     []string{".jpg", ".jpeg", ".png", ".txt"},

		M4BToolBin: "m4b-tool",
		FFprobeBin: "ffprobe",
		FFmpegBin:  "ffmpeg",
	}
}

// Validate checks invariants that must hold before the watcher starts, and
// compiles the match filter (if any).
func (c *Config) Validate() error {
	if c.InboxDir == "" {
		return fmt.Errorf("inbox_dir is required")
	}
	if c.CPUCores <= 0 {
		c.CPUCores = 1
	}
	if c.SleepTime <= 0 {
		return fmt.Errorf("sleeptime must be positive")
	}
	switch c.OverwriteMode {
	case OverwriteSkip, OverwriteOverwrite:
	case "":
		c.OverwriteMode = OverwriteSkip
	default:
		return fmt.Errorf("invalid overwrite_mode: %q", c.OverwriteMode)
	}
	switch c.OnComplete {
	case OnCompleteMove, OnCompleteDelete, OnCompleteDoNothing:
	case "":
		c.OnComplete = OnCompleteMove
	default:
		return fmt.Errorf("invalid on_complete: %q", c.OnComplete)
	}
	if c.MatchFilter != "" {
		re, err := regexp.Compile(c.MatchFilter)
		if err != nil {
			return fmt.Errorf("invalid match_filter: %w", err)
		}
		c.matchRe = re
	}
	return nil
}

// MatchRegexp returns the compiled match filter, or nil if none is set.
func (c *Config) MatchRegexp() *regexp.Regexp {
	return c.matchRe
}

// SleeptimeFriendly renders the sleep interval the way the CLI prints it,
// e.g. "10s" / "2m0s".
func (c *Config) SleeptimeFriendly() string {
	return c.SleepTime.String()
}
