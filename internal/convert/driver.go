// Package convert builds and runs the external merge-tool invocation that
// turns a book's staged audio files into a single .m4b, and interprets
// that tool's freeform stdout/stderr into a clean success/failure result.
//
// BuildArgs assembles the same flag set and conditionals the converter
// tool's merge command expects, via a subprocess-invocation idiom
// (os/exec, split stdout/stderr capture, akin to meta.WriteTags's
// CombinedOutput use and meta.Probe's cmd.Output() use).
package convert

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brandonscript/auto-m4b/internal/book"
	"github.com/brandonscript/auto-m4b/internal/config"
)

// BuildArgs builds the converter tool's argv from b, cfg and the
// optional chaptersFile, in a fixed order so the same config always
// produces the same argv.
func BuildArgs(b *book.Audiobook, cfg *config.Config, chaptersFile string) []string {
	var args []string
	add := func(a ...string) { args = append(args, a...) }

	add("merge", b.Root(book.StageMerge), "-n")

	if cfg.Debug {
		add("--debug")
	} else {
		add("-q")
	}

	if b.OrigFileType.IsPassthrough() {
		add("--audio-codec", "copy")
	} else {
		add("--audio-codec", "libfdk_aac")
		add("--audio-bitrate", strconv.Itoa(b.BitrateTarget))
		add("--audio-samplerate", strconv.Itoa(b.SampleRate))
	}

	add("--jobs", strconv.Itoa(cfg.CPUCores))
	add("--output-file", b.BuildFile())
	add("--logfile", b.LogPath())
	add("--no-chapter-reindexing")

	if cfg.SkipCovers {
		add("--no-cover-image")
	} else if !b.ID3.HasEmbeddedCover && b.CoverArt != "" {
		add("--cover", b.CoverArt)
	}

	if cfg.UseFilenamesAsChapters {
		add("--use-filenames-as-chapters")
	}

	if chaptersFile != "" {
		add("--chapters-file", chaptersFile)
	}

	add(idTagArgs(b)...)

	return args
}

// idTagArgs emits the title/author/year/comment switches, sourced from
// book.id3 — absent fields are simply omitted rather than passed as
// empty strings.
func idTagArgs(b *book.Audiobook) []string {
	var args []string
	add := func(flag string, f book.Field) {
		if f.Ok() {
			args = append(args, flag, f.Value)
		}
	}
	add("--name", b.ID3.Title)
	add("--artist", b.ID3.Author)
	add("--year", b.ID3.Year)
	add("--description", b.ID3.Comment)
	return args
}

// FindChaptersFile returns the first "*chapters.txt" file under the
// staged merge directory, or "" if none exists.
func FindChaptersFile(b *book.Audiobook) (string, error) {
	matches, err := filepath.Glob(filepath.Join(b.Root(book.StageMerge), "*chapters.txt"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0], nil
}

// argvString renders args the way a shell debug echo would:
// space-joined, quoting any argument containing whitespace.
func argvString(bin string, args []string) string {
	parts := []string{bin}
	for _, a := range args {
		if strings.ContainsAny(a, " \t") {
			parts = append(parts, fmt.Sprintf("%q", a))
		} else {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " ")
}
