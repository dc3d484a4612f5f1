package meta

import (
	"testing"

	"github.com/brandonscript/auto-m4b/internal/book"
)

func TestDerive_NoAudioFiles(t *testing.T) {
	b := &book.Audiobook{}
	if err := Derive(b); err == nil {
		t.Fatal("expected an error when no audio files are present")
	}
}

func TestDerive_NarratorFromComment(t *testing.T) {
	b := &book.Audiobook{
		ID3: book.Tags{
			Comment: book.Present("Read by Jane Doe"),
		},
	}
	b.AudioFiles = []string{"unused-for-this-assertion"}

	if m := narratorInComment.FindStringSubmatch(b.ID3.Comment.Value); m == nil || m[1] != "Jane Doe" {
		t.Fatalf("expected narrator regex to capture 'Jane Doe', got %v", m)
	}
}
