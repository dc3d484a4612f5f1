package meta

import (
	"fmt"
	"regexp"

	"github.com/brandonscript/auto-m4b/internal/book"
)

// narratorInComment matches a "Read by <Narrator>" style substring
// inside a comment tag, following the same pattern-tried-in-order
// regex-heuristic style used for title/track parsing elsewhere, but
// aimed at narrator derivation.
var narratorInComment = regexp.MustCompile(`(?i)read\s+by\s+(.+?)\s*$`)

// Derive populates book.ID3 by combining tags read from the first audio
// file with a heuristic parse of the comment field. It only fills
// fields that are still missing — callers that already populated a
// field (e.g. from a prior stage) are not overwritten.
func Derive(b *book.Audiobook) error {
	if len(b.AudioFiles) == 0 {
		return fmt.Errorf("meta: cannot derive metadata, no audio files")
	}
	first := b.AudioFiles[0]

	assign := func(field *book.Field, key TagKey) {
		if field.Ok() {
			return
		}
		v, ok, err := ReadTag(first, key)
		switch {
		case err != nil:
			*field = book.Errored(err)
		case ok:
			*field = book.Present(v)
		default:
			*field = book.Missing()
		}
	}

	assign(&b.ID3.Title, TagTitle)
	assign(&b.ID3.Author, TagArtist)
	assign(&b.ID3.Year, TagYear)
	assign(&b.ID3.Comment, TagComment)

	if cover, ok, err := ReadTag(first, TagHasCover); err == nil && ok {
		b.ID3.HasEmbeddedCover = cover == "true"
	}

	if !b.ID3.Narrator.Ok() && b.ID3.Comment.Ok() {
		if m := narratorInComment.FindStringSubmatch(b.ID3.Comment.Value); m != nil {
			b.ID3.Narrator = book.Present(m[1])
		}
	}
	if !b.ID3.Narrator.Ok() {
		b.ID3.Narrator = book.Missing()
	}

	return nil
}
