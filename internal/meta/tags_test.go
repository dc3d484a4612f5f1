package meta

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brandonscript/auto-m4b/internal/bookerr"
)

func TestReadTag_MissingFile(t *testing.T) {
	_, _, err := ReadTag(filepath.Join(t.TempDir(), "nope.mp3"), TagTitle)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	var bfe *bookerr.BadFileError
	if !errors.As(err, &bfe) {
		t.Errorf("expected a BadFileError, got %T", err)
	}
}

func TestReadTag_UndecodableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notaudio.mp3")
	if err := os.WriteFile(path, []byte("not an audio file"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := ReadTag(path, TagTitle)
	if err == nil {
		t.Fatal("expected a decode error for a non-audio file")
	}
	var bfe *bookerr.BadFileError
	if !errors.As(err, &bfe) {
		t.Errorf("expected a BadFileError, got %T", err)
	}
}

func TestWriteTags_MissingFile(t *testing.T) {
	err := WriteTags("ffmpeg", filepath.Join(t.TempDir(), "nope.mp3"), WriteSet{TagTitle: "x"})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	var bfe *bookerr.BadFileError
	if !errors.As(err, &bfe) {
		t.Errorf("expected a BadFileError, got %T", err)
	}
}

func TestWriteTags_EmptySetIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.mp3")
	if err := os.WriteFile(path, []byte("irrelevant"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteTags("ffmpeg", path, WriteSet{}); err != nil {
		t.Errorf("expected no-op for empty tag set, got %v", err)
	}
}

func TestFFmpegKeyFor(t *testing.T) {
	cases := map[TagKey]string{
		TagAlbumArtist: "album_artist",
		TagYear:        "date",
		TagTitle:       "title",
	}
	for k, want := range cases {
		if got := ffmpegKeyFor(k); got != want {
			t.Errorf("ffmpegKeyFor(%v) = %q, want %q", k, got, want)
		}
	}
}
