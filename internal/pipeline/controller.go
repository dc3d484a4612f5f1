// Package pipeline orchestrates a single candidate directory through
// auto-m4b's state machine: received → validated → backed_up → staged →
// built → tagged → published, with quarantine/skip side-exits at every
// stage.
//
// Controller.Process follows a load-inputs, iterate, branch-on-config,
// emit-one-outcome-per-item shape, logged through report.EventLogger,
// but runs a strictly sequential per-book state machine rather than a
// batch plan: books are never interleaved, and a stage transition never
// reorders relative to the ones before it.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brandonscript/auto-m4b/internal/book"
	"github.com/brandonscript/auto-m4b/internal/bookerr"
	"github.com/brandonscript/auto-m4b/internal/classify"
	"github.com/brandonscript/auto-m4b/internal/config"
	"github.com/brandonscript/auto-m4b/internal/convert"
	"github.com/brandonscript/auto-m4b/internal/meta"
	"github.com/brandonscript/auto-m4b/internal/report"
)

// Outcome is the terminal disposition of one book after Process returns.
type Outcome string

const (
	OutcomePublished   Outcome = "published"
	OutcomeQuarantined Outcome = "quarantined"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeFailed      Outcome = "failed"
)

// Result reports what happened to a book, for the caller (the scheduler)
// to fold into the global log and the failed-books set.
type Result struct {
	Outcome  Outcome
	Reason   string
	Elapsed  time.Duration
	Err      error
}

// Controller drives one book through every stage transition.
type Controller struct {
	cfg     *config.Config
	exts    book.ExtensionSet
	fileOps *FileOps
	logger  *report.EventLogger
}

// New builds a Controller bound to cfg and a book.ExtensionSet of allowed
// audio extensions.
func New(cfg *config.Config, exts book.ExtensionSet, logger *report.EventLogger) *Controller {
	if logger == nil {
		logger = report.NullLogger()
	}
	return &Controller{
		cfg:     cfg,
		exts:    exts,
		fileOps: NewFileOps(cfg.InboxDir, cfg.NASMode),
		logger:  logger,
	}
}

// Process drives b through the full pipeline. It never panics; every
// failure is captured in the returned Result. The watcher writes one
// global-log row for a published or failed Result; a skipped Result
// gets no row.
func (c *Controller) Process(ctx context.Context, b *book.Audiobook) Result {
	start := time.Now()

	decision, err := Route(b, c.cfg, c.exts)
	if err != nil {
		return c.fail(b, start, err)
	}
	switch decision.Outcome {
	case RouteQuarantined:
		return c.quarantine(ctx, b, start, decision.Reason, nil)
	case RouteSkipped:
		return Result{Outcome: OutcomeSkipped, Reason: decision.Reason, Elapsed: time.Since(start)}
	case RouteFailed:
		_ = b.WriteLog(decision.Reason)
		return Result{Outcome: OutcomeFailed, Reason: decision.Reason, Elapsed: time.Since(start)}
	}

	if err := c.backup(ctx, b); err != nil {
		if _, ok := err.(*bookerr.BackupMismatch); ok {
			return Result{Outcome: OutcomeSkipped, Reason: err.Error(), Elapsed: time.Since(start), Err: err}
		}
		if bookerr.IsTransient(err) {
			return Result{Outcome: OutcomeSkipped, Reason: "transient failure, will retry next tick: " + err.Error(), Elapsed: time.Since(start), Err: err}
		}
		return c.fail(b, start, err)
	}

	if err := c.stage(ctx, b); err != nil {
		if bookerr.IsTransient(err) {
			return Result{Outcome: OutcomeSkipped, Reason: "transient failure, will retry next tick: " + err.Error(), Elapsed: time.Since(start), Err: err}
		}
		if bookerr.IsStructural(err) {
			return c.quarantine(ctx, b, start, err.Error(), err)
		}
		return c.fail(b, start, err)
	}

	if err := c.build(ctx, b); err != nil {
		return c.quarantine(ctx, b, start, "conversion failed", err)
	}

	if err := c.tag(b); err != nil {
		return c.quarantine(ctx, b, start, "tagging failed", err)
	}

	if err := c.publish(ctx, b); err != nil {
		return c.quarantine(ctx, b, start, "publish failed", err)
	}

	if err := c.postPublish(ctx, b); err != nil {
		// post-publish actions are best-effort by rule 7:
		// a failure here does not unwind the already-published artifact.
		_ = b.WriteLog(fmt.Sprintf("post-publish action failed: %v", err))
	}

	elapsed := time.Since(start)
	_ = b.WriteLog(fmt.Sprintf("published in %s", elapsed))
	_ = c.logger.LogPublish(b.Key, b.ConvertedFile())
	return Result{Outcome: OutcomePublished, Elapsed: elapsed}
}

// backup implements rule 2: validated → backed_up.
func (c *Controller) backup(ctx context.Context, b *book.Audiobook) error {
	if !c.cfg.MakeBackup {
		_ = b.WriteLog("backup disabled, skipping")
		return nil
	}
	_, inboxBytes, err := b.Size(book.StageInbox, book.SizeBytes)
	if err != nil {
		return &bookerr.TransientFSError{Op: "stat inbox", Err: err}
	}
	if inboxBytes == 0 {
		_ = b.WriteLog("inbox is empty, skipping backup")
		return nil
	}

	if err := b.EnsureStageDir(book.StageBackup); err != nil {
		return &bookerr.TransientFSError{Op: "create backup dir", Err: err}
	}
	if _, _, err := c.fileOps.CopyDir(ctx, b.Root(book.StageInbox), b.Root(book.StageBackup), SkipSilent); err != nil {
		return err
	}

	srcCount, err := b.NumFiles(book.StageInbox, c.exts)
	if err != nil {
		return &bookerr.TransientFSError{Op: "stat inbox", Err: err}
	}
	_, srcBytes, err := b.Size(book.StageInbox, book.SizeBytes)
	if err != nil {
		return &bookerr.TransientFSError{Op: "stat inbox", Err: err}
	}
	dstCount, err := b.NumFiles(book.StageBackup, c.exts)
	if err != nil {
		return &bookerr.TransientFSError{Op: "stat backup", Err: err}
	}
	_, dstBytes, err := b.Size(book.StageBackup, book.SizeBytes)
	if err != nil {
		return &bookerr.TransientFSError{Op: "stat backup", Err: err}
	}
	if !backupMatches(int64(srcCount), srcBytes, int64(dstCount), dstBytes) {
		return &bookerr.BackupMismatch{
			Book:   b.Key,
			Detail: fmt.Sprintf("inbox=%dB backup=%dB differ beyond tolerance", srcBytes, dstBytes),
		}
	}
	return nil
}

// backupMatches accepts three outcomes for rule 2: an exact match, a
// strictly-larger destination (a prior backup already covers this
// book), or a fuzzy match within 1000 bytes with matching file counts.
func backupMatches(srcCount int64, srcBytes int64, dstCount int64, dstBytes int64) bool {
	if srcCount == dstCount && srcBytes == dstBytes {
		return true
	}
	if dstBytes > srcBytes {
		return true
	}
	delta := srcBytes - dstBytes
	if delta < 0 {
		delta = -delta
	}
	return srcCount == dstCount && delta < 1000
}

// stage implements rule 3: backed_up → staged.
func (c *Controller) stage(ctx context.Context, b *book.Audiobook) error {
	if err := CleanDir(b.Root(book.StageBuild)); err != nil {
		return &bookerr.TransientFSError{Op: "clean build dir", Err: err}
	}
	if err := CleanDir(b.Root(book.StageBuildTmp)); err != nil {
		return &bookerr.TransientFSError{Op: "clean build tmp dir", Err: err}
	}
	if err := b.EnsureStageDir(book.StageMerge); err != nil {
		return &bookerr.TransientFSError{Op: "create merge dir", Err: err}
	}
	if _, _, err := c.fileOps.CopyDir(ctx, b.Root(book.StageInbox), b.Root(book.StageMerge), OverwriteSilent); err != nil {
		return err
	}
	b.SetActiveDir(book.StageMerge)
	b.ExtractPathInfo()

	mergedFiles, err := mergedAudioFiles(b)
	if err != nil {
		return &bookerr.TransientFSError{Op: "list staged audio files", Err: err}
	}
	b.AudioFiles = mergedFiles
	if len(b.AudioFiles) == 0 {
		return &bookerr.StructuralError{Path: b.Root(book.StageMerge), Reason: "no audio files after staging"}
	}

	first := b.AudioFiles[0]
	if ft, ok := book.FileTypeFromExt(filepath.Ext(first)); ok {
		b.OrigFileType = ft
	}
	probe, err := meta.Probe(c.cfg.FFprobeBin, first)
	if err != nil {
		return err
	}
	b.BitrateTarget = probe.StandardBitrateBPS
	b.SampleRate = probe.SampleRateHz

	if !c.cfg.SkipCovers {
		b.CoverArt = findCoverArt(coverSearchDirs(b.Root(book.StageMerge)), c.cfg.CPUCores)
	}

	return meta.Derive(b)
}

// coverSearchDirs lists the merge root plus its immediate subdirectories,
// since a book's source files are sometimes one level deeper than the
// merge root after staging (e.g. a single-disc subfolder).
func coverSearchDirs(mergeRoot string) []string {
	dirs := []string{mergeRoot}
	entries, err := os.ReadDir(mergeRoot)
	if err != nil {
		return dirs
	}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(mergeRoot, e.Name()))
		}
	}
	return dirs
}

func mergedAudioFiles(b *book.Audiobook) ([]string, error) {
	root := b.Root(book.StageMerge)
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() && book.AudioExtensions.Allowed(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	classify.SortNatural(files)
	return files, nil
}

// build implements rule 4: staged → built.
func (c *Controller) build(ctx context.Context, b *book.Audiobook) error {
	if err := b.EnsureStageDir(book.StageBuild); err != nil {
		return &bookerr.TransientFSError{Op: "create build dir", Err: err}
	}

	start := time.Now()
	res, err := convert.Run(ctx, b, c.cfg)
	elapsed := time.Since(start)
	_ = c.logger.LogConvert(b.Key, elapsed, err == nil && res.OK, res.ErrorSummary)

	if err != nil {
		return &bookerr.FatalProcessError{Reason: "converter invocation failed", Err: err}
	}
	if !res.OK {
		_ = b.WriteLog(fmt.Sprintf("FAILED: %s", res.ErrorSummary))
		if moveErr := c.toFix(ctx, b); moveErr != nil {
			_ = b.WriteLog(fmt.Sprintf("also failed to move to fix: %v", moveErr))
		}
		return &bookerr.ConversionError{Book: b.Key, Stage: "build", Stderr: res.Stderr, Err: fmt.Errorf("%s", res.ErrorSummary)}
	}
	_ = b.WriteLog(fmt.Sprintf("converted in %s", elapsed))
	return nil
}

// toFix moves the staged merge directory (and the per-book log) to the
// fix folder, for a fatal conversion failure by rule 4.
func (c *Controller) toFix(ctx context.Context, b *book.Audiobook) error {
	if c.cfg.NoFix {
		_ = b.WriteLog("no_fix is set, leaving book in place instead of moving to fix")
		return nil
	}
	if err := b.EnsureStageDir(book.StageFix); err != nil {
		return err
	}
	if _, _, err := c.fileOps.MoveDir(ctx, b.Root(book.StageMerge), b.Root(book.StageFix), OverwriteSilent); err != nil {
		return err
	}
	return b.CopyLogTo(filepath.Join(b.Root(book.StageFix), fmt.Sprintf("m4b-tool.%s.log", b.Key)))
}

// tag implements rule 5: built → tagged.
func (c *Controller) tag(b *book.Audiobook) error {
	set := meta.WriteSet{}
	if b.ID3.Title.Ok() {
		set[meta.TagTitle] = b.ID3.Title.Value
	}
	if b.ID3.Author.Ok() {
		set[meta.TagArtist] = b.ID3.Author.Value
	}
	if b.ID3.Year.Ok() {
		set[meta.TagYear] = b.ID3.Year.Value
	}
	if b.ID3.Comment.Ok() {
		set[meta.TagComment] = b.ID3.Comment.Value
	}
	if len(set) == 0 {
		return nil
	}
	return meta.WriteTags(c.cfg.FFmpegBin, b.BuildFile(), set)
}

// publish implements rule 6: tagged → published.
func (c *Controller) publish(ctx context.Context, b *book.Audiobook) error {
	if err := b.EnsureStageDir(book.StageConverted); err != nil {
		return &bookerr.TransientFSError{Op: "create converted dir", Err: err}
	}

	sidecarExts := book.NewExtensionSet(append([]string{".jpg", ".jpeg", ".png", ".txt"}, c.cfg.OtherExts...)...)
	if err := moveMatching(ctx, c.fileOps, b.Root(book.StageMerge), b.Root(book.StageConverted), sidecarExts); err != nil {
		return err
	}

	logDest := filepath.Join(b.Root(book.StageConverted), fmt.Sprintf("m4b-tool.%s.log", b.Key))
	if err := b.CopyLogTo(logDest); err != nil {
		return err
	}

	published := filepath.Join(b.Root(book.StageConverted), b.Basename+".m4b")
	policy := OverwriteSilent
	if _, err := os.Stat(published); err == nil {
		switch c.cfg.OverwriteMode {
		case config.OverwriteSkip:
			_ = b.WriteLog("output file already exists, overwrite_mode is skip: leaving the existing converted file in place")
			policy = SkipSilent
		default:
			_ = b.WriteLog("output file already exists, overwrite_mode is overwrite: replacing it")
		}
	}

	if _, _, err := c.fileOps.MoveDir(ctx, b.Root(book.StageBuild), b.Root(book.StageConverted), policy); err != nil {
		return err
	}

	if _, err := os.Stat(published); err != nil {
		return &bookerr.StructuralError{Path: published, Reason: "output file does not exist"}
	}

	if err := ensureDescriptionFile(b); err != nil {
		_ = b.WriteLog(fmt.Sprintf("could not (re)write description file: %v", err))
	}
	os.Remove(filepath.Join(b.Root(book.StageConverted), "description.txt"))

	if err := CleanDir(b.Root(book.StageMerge)); err != nil {
		_ = b.WriteLog(fmt.Sprintf("could not clean merge dir: %v", err))
	}
	if err := CleanDir(b.Root(book.StageBuild)); err != nil {
		_ = b.WriteLog(fmt.Sprintf("could not clean build dir: %v", err))
	}

	b.SetActiveDir(book.StageConverted)
	return nil
}

func moveMatching(ctx context.Context, fo *FileOps, src, dst string, exts book.ExtensionSet) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !exts.Allowed(e.Name()) {
			continue
		}
		if _, err := fo.MoveFile(ctx, filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// ensureDescriptionFile writes "<basename> [<samplerate>kHz*].txt" next
// to the published artifact if it isn't already present.
func ensureDescriptionFile(b *book.Audiobook) error {
	name := fmt.Sprintf("%s [%dkHz*].txt", b.Basename, b.SampleRate/1000)
	path := filepath.Join(b.Root(book.StageConverted), name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	content := fmt.Sprintf("%s\n%s\n", b.ID3.Title.Value, b.ID3.Author.Value)
	return os.WriteFile(path, []byte(content), 0o644)
}

// postPublish implements rule 7 on_complete action.
func (c *Controller) postPublish(ctx context.Context, b *book.Audiobook) error {
	switch c.cfg.OnComplete {
	case config.OnCompleteMove:
		if err := b.EnsureStageDir(book.StageArchive); err != nil {
			return err
		}
		if _, _, err := c.fileOps.MoveDir(ctx, b.Root(book.StageInbox), b.Root(book.StageArchive), OverwriteSilent); err != nil {
			return err
		}
		if _, err := os.Stat(b.Root(book.StageInbox)); err == nil {
			_ = b.WriteLog("warning: inbox directory still exists after archive move")
		}
		return nil
	case config.OnCompleteDelete:
		allowed := book.NewExtensionSet(append([]string{".jpg", ".jpeg", ".png", ".txt"}, c.cfg.OtherExts...)...)
		for ext := range book.AudioExtensions {
			allowed[ext] = true
		}
		if !IsOkToDelete(b.Root(book.StageInbox), allowed) {
			_ = b.WriteLog("refusing to delete inbox: unrecognised file types present")
			return nil
		}
		return os.RemoveAll(b.Root(book.StageInbox))
	case config.OnCompleteDoNothing:
		return nil
	}
	return nil
}

func (c *Controller) quarantine(ctx context.Context, b *book.Audiobook, start time.Time, reason string, cause error) Result {
	_ = b.WriteLog(fmt.Sprintf("QUARANTINED: %s", reason))
	_ = c.logger.LogQuarantine(b.Key, b.Root(book.StageInbox), reason)

	if !c.cfg.NoFix {
		if err := b.EnsureStageDir(book.StageFix); err == nil {
			src := b.ActiveRoot()
			if src == b.Root(book.StageFix) {
				src = b.Root(book.StageInbox)
			}
			_, _, _ = c.fileOps.MoveDir(ctx, src, b.Root(book.StageFix), SkipSilent)
			_ = b.CopyLogTo(filepath.Join(b.Root(book.StageFix), fmt.Sprintf("m4b-tool.%s.log", b.Key)))
		}
	}

	return Result{Outcome: OutcomeQuarantined, Reason: reason, Elapsed: time.Since(start), Err: cause}
}

func (c *Controller) fail(b *book.Audiobook, start time.Time, err error) Result {
	_ = b.WriteLog(fmt.Sprintf("FAILED: %v", err))
	_ = c.logger.LogError(report.EventError, b.Root(book.StageInbox), err)
	return Result{Outcome: OutcomeFailed, Reason: err.Error(), Elapsed: time.Since(start), Err: err}
}
