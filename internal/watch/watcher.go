// Package watch implements the outer scheduler that repeatedly scans the
// inbox directory for candidate books and drives each one through
// internal/pipeline.Controller.
//
// Watcher.Tick shows a progressbar/v3 bar counting processed candidates
// when stdout is a TTY (checked via util.IsTerminal); otherwise no bar is
// drawn and only the per-book log lines appear.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/brandonscript/auto-m4b/internal/book"
	"github.com/brandonscript/auto-m4b/internal/config"
	"github.com/brandonscript/auto-m4b/internal/pipeline"
	"github.com/brandonscript/auto-m4b/internal/report"
	"github.com/brandonscript/auto-m4b/internal/state"
	"github.com/brandonscript/auto-m4b/internal/util"
)

// Watcher drives repeated ticks over cfg.InboxDir, maintaining the
// cross-tick state (last-touched mtime, failed books, the global log)
// a long-running watch needs.
type Watcher struct {
	cfg        *config.Config
	exts       book.ExtensionSet
	controller *pipeline.Controller
	fileOps    *pipeline.FileOps
	globalLog  *state.GlobalLog
	Failed     *state.FailedBooks

	lastTouched time.Time
}

// New builds a Watcher bound to cfg, logging structured events through
// logger (may be nil/report.NullLogger()).
func New(cfg *config.Config, logger *report.EventLogger) *Watcher {
	return &Watcher{
		cfg:        cfg,
		exts:       book.AudioExtensions,
		controller: pipeline.New(cfg, book.AudioExtensions, logger),
		fileOps:    pipeline.NewFileOps(cfg.InboxDir, cfg.NASMode),
		globalLog:  state.NewGlobalLog(cfg.GlobalLog),
		Failed:     state.NewFailedBooks(),
	}
}

// Run loops calling Tick every cfg.SleepTime until ctx is cancelled,
// checking for cancellation between ticks and between book transitions,
// never mid-transition.
func (w *Watcher) Run(ctx context.Context) error {
	first := true
	for {
		if err := w.Tick(ctx, first); err != nil {
			return err
		}
		first = false

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.SleepTime):
		}
	}
}

// Tick implements one pass over the inbox: count, compare mtimes, wait
// out in-flight copies, promote standalones, enumerate candidate
// books, filter, and process each one in turn.
func (w *Watcher) Tick(ctx context.Context, firstRun bool) error {
	total, err := countAudioFiles(w.cfg.InboxDir, w.exts, false)
	if err != nil {
		return fmt.Errorf("watch: count inbox audio files: %w", err)
	}
	if total == 0 {
		if firstRun {
			banner("Watching", w.cfg.InboxDir)
		}
		return nil
	}

	if info, statErr := os.Stat(w.cfg.InboxDir); statErr == nil {
		if !w.lastTouched.IsZero() && info.ModTime().Equal(w.lastTouched) {
			return nil
		}
	}

	banner("Checking", w.cfg.InboxDir)

	recent, err := pipeline.WasRecentlyModified(w.cfg.InboxDir, recentlyModifiedWithin(w.cfg.WaitTime))
	if err != nil {
		return fmt.Errorf("watch: check inbox mtime: %w", err)
	}
	if recent {
		util.InfoLog("The inbox folder was recently modified, waiting in case files are being copied...")
		return nil
	}

	if err := PromoteStandaloneFiles(ctx, w.cfg, w.exts, w.fileOps); err != nil {
		return fmt.Errorf("watch: promote standalone files: %w", err)
	}

	dirs, err := candidateBookDirs(w.cfg.InboxDir, w.exts)
	if err != nil {
		return fmt.Errorf("watch: list candidate books: %w", err)
	}
	if len(dirs) == 0 {
		util.InfoLog("No books to convert, next check in %s", w.cfg.SleeptimeFriendly())
		return nil
	}

	re := w.cfg.MatchRegexp()
	var matched []string
	for _, d := range dirs {
		if state.NameMatches(re, filepath.Base(d)) {
			matched = append(matched, d)
		}
	}
	if len(matched) == 0 {
		util.InfoLog("Found %d books, but none match %q, next check in %s", len(dirs), w.cfg.MatchFilter, w.cfg.SleeptimeFriendly())
		return nil
	}
	if len(matched) != len(dirs) {
		util.InfoLog("Found %d of %d books in inbox matching %q", len(matched), len(dirs), w.cfg.MatchFilter)
	} else {
		util.InfoLog("Found %d books to convert", len(matched))
	}

	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stdout.Fd()) {
		bar = progressbar.NewOptions(len(matched),
			progressbar.OptionSetDescription("Processing"),
			progressbar.OptionSetWidth(barWidth()),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, dir := range matched {
		basename := filepath.Base(dir)
		if w.Failed.Contains(basename) {
			if bar != nil {
				_ = bar.Add(1)
			}
			continue
		}

		b := book.New(w.cfg, basename)
		result := w.controller.Process(ctx, b)
		w.record(basename, result)

		if bar != nil {
			_ = bar.Add(1)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	if info, statErr := os.Stat(w.cfg.InboxDir); statErr == nil {
		w.lastTouched = info.ModTime()
	}
	return nil
}

// record folds one book's outcome into the global log and the
// in-process failed-books set used to skip it on subsequent ticks.
func (w *Watcher) record(basename string, result pipeline.Result) {
	switch result.Outcome {
	case pipeline.OutcomePublished:
		w.Failed.Remove(basename)
		_ = w.globalLog.Append(basename, true, result.Elapsed)
		util.SuccessLog("%s converted in %s", basename, result.Elapsed.Round(time.Second))
	case pipeline.OutcomeSkipped:
		util.InfoLog("%s: %s", basename, result.Reason)
	default:
		w.Failed.Add(basename)
		_ = w.globalLog.Append(basename, false, result.Elapsed)
		if result.Err != nil {
			util.ErrorLog("%s: %s (%v)", basename, result.Reason, result.Err)
		} else {
			util.WarnLog("%s: %s", basename, result.Reason)
		}
	}
}

// recentlyModifiedWithin returns a predicate for pipeline.WasRecentlyModified
// matching any mtime within window of now.
func recentlyModifiedWithin(window time.Duration) func(modTime int64) bool {
	cutoff := time.Now().Add(-window).Unix()
	return func(modTime int64) bool { return modTime > cutoff }
}

func banner(verb, inbox string) {
	util.InfoLog("%s for new books in %s", verb, inbox)
}

// barWidth sizes the progress bar to the terminal, capped so it never
// crowds out the description and count columns on a narrow terminal.
func barWidth() int {
	w := util.GetTerminalWidth() - 40
	if w < 10 {
		return 10
	}
	if w > 60 {
		return 60
	}
	return w
}

// countAudioFiles counts allowed files under dir; rootOnly restricts the
// count to files directly inside dir (depth 0), matching the
// distinct "any audio files at all" vs "standalone files at the root"
// checks.
func countAudioFiles(dir string, exts book.ExtensionSet, rootOnly bool) (int, error) {
	if rootOnly {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return 0, nil
			}
			return 0, err
		}
		n := 0
		for _, e := range entries {
			if !e.IsDir() && exts.Allowed(e.Name()) {
				n++
			}
		}
		return n, nil
	}

	n := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() && exts.Allowed(path) {
			n++
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}
	return n, nil
}

// candidateBookDirs returns every immediate child directory of inbox
// that contains at least one allowed file anywhere beneath it, sorted
// for deterministic processing order.
func candidateBookDirs(inbox string, exts book.ExtensionSet) ([]string, error) {
	entries, err := os.ReadDir(inbox)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		full := filepath.Join(inbox, e.Name())
		has, err := containsAudioRecursive(full, exts)
		if err != nil {
			return nil, err
		}
		if has {
			dirs = append(dirs, full)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func containsAudioRecursive(dir string, exts book.ExtensionSet) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if found {
			return filepath.SkipAll
		}
		if !d.IsDir() && exts.Allowed(path) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found, err
}
