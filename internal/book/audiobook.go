// Package book implements the Audiobook model: a book's identity, the
// filesystem roots it can occupy, its derived metadata, and its
// per-book log.
//
// The stage-root layout is adapted from a row-oriented file/metadata
// shape, but kept as a plain in-memory struct rather than SQL-backed
// rows — see DESIGN.md for why a database was dropped for this
// component.
package book

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/brandonscript/auto-m4b/internal/config"
)

// Audiobook aggregates everything the pipeline needs to process one
// candidate directory through a single tick.
type Audiobook struct {
	Key      string // stable identifier: inbox-relative basename
	Basename string // display name

	roots       map[Stage]string
	activeStage Stage

	OrigFileType FileType
	AudioFiles   []string // natural-ordered, absolute paths under the active stage

	ID3 Tags

	BitrateTarget int // bps, derived from the first audio file
	SampleRate    int // Hz

	CoverArt string // path to external cover art, or "" if none

	logPath string
}

// New constructs an Audiobook for basename, deriving every stage root by
// simple concatenation of the configured stage directory and the
// basename. Stage roots are not created on disk here; they are created
// lazily on first write (EnsureStageDir).
func New(cfg *config.Config, basename string) *Audiobook {
	b := &Audiobook{
		Key:         basename,
		Basename:    basename,
		roots:       make(map[Stage]string, 8),
		activeStage: StageInbox,
	}
	b.roots[StageInbox] = filepath.Join(cfg.InboxDir, basename)
	b.roots[StageBackup] = filepath.Join(cfg.BackupDir, basename)
	b.roots[StageMerge] = filepath.Join(cfg.MergeDir, basename)
	b.roots[StageBuild] = filepath.Join(cfg.BuildDir, basename)
	b.roots[StageBuildTmp] = filepath.Join(cfg.BuildDir, basename+"-tmpfiles-"+uuid.NewString()[:8])
	b.roots[StageConverted] = filepath.Join(cfg.ConvertedDir, basename)
	b.roots[StageArchive] = filepath.Join(cfg.ArchiveDir, basename)
	b.roots[StageFix] = filepath.Join(cfg.FixDir, basename)
	b.logPath = filepath.Join(b.roots[StageInbox], fmt.Sprintf("m4b-tool.%s.log", basename))
	return b
}

// Root returns the filesystem root for the given stage. It panics on an
// unrecognised stage, since that can only happen from a programming error
// (Stage is a closed enum constructed only by this package).
func (b *Audiobook) Root(stage Stage) string {
	if !stage.Valid() {
		panic(fmt.Sprintf("book: unrecognised stage %q", stage))
	}
	return b.roots[stage]
}

// ActiveStage returns the stage currently authoritative for this book:
// exactly one active stage at a time.
func (b *Audiobook) ActiveStage() Stage {
	return b.activeStage
}

// SetActiveDir updates the active stage. It is the sole mutator of
// activeStage, matching the set_active_dir operation.
func (b *Audiobook) SetActiveDir(stage Stage) {
	if !stage.Valid() {
		panic(fmt.Sprintf("book: unrecognised stage %q", stage))
	}
	b.activeStage = stage
}

// ActiveRoot returns Root(ActiveStage()).
func (b *Audiobook) ActiveRoot() string {
	return b.Root(b.activeStage)
}

// ConvertedFile is the canonical published artifact path:
// <converted_root>/<basename>/<basename>.m4b.
func (b *Audiobook) ConvertedFile() string {
	return filepath.Join(b.Root(StageConverted), b.Basename+".m4b")
}

// BuildFile is the path the converter is told to write to.
func (b *Audiobook) BuildFile() string {
	return filepath.Join(b.Root(StageBuild), b.Basename+".m4b")
}

// LogPath is the per-book append-only log file path.
func (b *Audiobook) LogPath() string {
	return b.logPath
}

// EnsureStageDir lazily creates a stage root on first write.
func (b *Audiobook) EnsureStageDir(stage Stage) error {
	return os.MkdirAll(b.Root(stage), 0o755)
}

// WriteLog appends newline-terminated lines to the per-book log,
// grounded on leveled-logging style (util.DebugLog etc.)
// but durable to a file, matching the "per-book append-only log".
func (b *Audiobook) WriteLog(lines ...string) error {
	if err := os.MkdirAll(filepath.Dir(b.logPath), 0o755); err != nil {
		return fmt.Errorf("book: create log dir: %w", err)
	}
	f, err := os.OpenFile(b.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("book: open log: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	ts := time.Now().Format(time.RFC3339)
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s  %s\n", ts, line); err != nil {
			return err
		}
	}
	return w.Flush()
}

// NumFiles counts the audio files currently present under the given
// stage's root (walking the filesystem, not the in-memory AudioFiles
// slice, since that only reflects the active stage at classification
// time).
func (b *Audiobook) NumFiles(stage Stage, exts ExtensionSet) (int, error) {
	root := b.Root(stage)
	n := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
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

// SizeUnit selects the return format of Size.
type SizeUnit int

const (
	SizeBytes SizeUnit = iota
	SizeHuman
)

// Size aggregates the byte size of every file under the given stage's
// root. "human" formatting is delegated to github.com/dustin/go-humanize
// rather than a hand-rolled byte formatter.
func (b *Audiobook) Size(stage Stage, unit SizeUnit) (string, int64, error) {
	root := b.Root(stage)
	var total int64
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return statErr
		}
		total += info.Size()
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return "", 0, err
	}
	if unit == SizeHuman {
		return humanize.Bytes(uint64(total)), total, nil
	}
	return fmt.Sprintf("%d", total), total, nil
}

// ExtractPathInfo derives a filesystem-title guess from the basename,
// stripping trailing noise like " (Unabridged)" or " [mp3]". It only
// fills in fields that extraction from tags left missing.
func (b *Audiobook) ExtractPathInfo() {
	title := StripPathNoise(b.Basename)
	if !b.ID3.Title.Ok() {
		b.ID3.Title = Present(title)
	}
}

// CopyLogTo copies the current log file's contents to destPath, used when
// quarantining or publishing a book (the log travels with the book).
func (b *Audiobook) CopyLogTo(destPath string) error {
	src, err := os.Open(b.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// String implements fmt.Stringer for convenient logging (%v / Sprintf).
func (b *Audiobook) String() string {
	return b.Basename
}
