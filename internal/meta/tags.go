package meta

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/dhowden/tag"

	"github.com/brandonscript/auto-m4b/internal/bookerr"
)

// TagKey is a closed set of the metadata keys a tag read/write can
// target.
type TagKey string

const (
	TagTitle       TagKey = "title"
	TagArtist      TagKey = "artist"
	TagAlbum       TagKey = "album"
	TagAlbumArtist TagKey = "album_artist"
	TagYear        TagKey = "year"
	TagComment     TagKey = "comment"
	TagComposer    TagKey = "composer"
	TagHasCover    TagKey = "has_cover"
)

// ReadTag reads a single tag value from path using github.com/dhowden/tag,
// trimmed to the fixed TagKey set. It returns ("", false, nil) for a
// genuinely absent tag, and a BadFileError if the file can't be opened
// or decoded.
func ReadTag(path string, key TagKey) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, &bookerr.BadFileError{Path: path, Err: err}
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", false, &bookerr.BadFileError{Path: path, Err: err}
	}

	switch key {
	case TagTitle:
		return nonEmpty(m.Title())
	case TagArtist:
		return nonEmpty(m.Artist())
	case TagAlbum:
		return nonEmpty(m.Album())
	case TagAlbumArtist:
		return nonEmpty(m.AlbumArtist())
	case TagComposer:
		return nonEmpty(m.Composer())
	case TagComment:
		return nonEmpty(m.Comment())
	case TagYear:
		if m.Year() > 0 {
			return fmt.Sprintf("%d", m.Year()), true, nil
		}
		return "", false, nil
	case TagHasCover:
		if m.Picture() != nil {
			return "true", true, nil
		}
		return "false", true, nil
	default:
		return "", false, fmt.Errorf("meta: unknown tag key %q", key)
	}
}

func nonEmpty(s string) (string, bool, error) {
	if s == "" {
		return "", false, nil
	}
	return s, true, nil
}

// WriteSet is the map of tag keys to values write_tags accepts.
type WriteSet map[TagKey]string

// WriteTags writes the supplied keys to path atomically (temp file +
// rename): ffmpeg "-metadata k=v ... -c copy" into a ".tagged" temp
// file, then an atomic rename over the original. Every written key is
// read back afterward and compared, so a caller never silently
// diverges from what it asked to write.
func WriteTags(ffmpegBin, path string, tags WriteSet) error {
	if _, err := os.Stat(path); err != nil {
		return &bookerr.BadFileError{Path: path, Err: err}
	}
	if len(tags) == 0 {
		return nil
	}

	args := []string{"-i", path}
	for k, v := range tags {
		if v == "" {
			continue
		}
		args = append(args, "-metadata", fmt.Sprintf("%s=%s", ffmpegKeyFor(k), v))
	}
	tempPath := path + ".tagged"
	args = append(args, "-c", "copy", "-y", tempPath)

	cmd := exec.Command(ffmpegBin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tempPath)
		return &bookerr.BadFileError{Path: path, Err: fmt.Errorf("ffmpeg: %w: %s", err, string(output))}
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("meta: rename tagged file into place: %w", err)
	}

	return verifyTags(path, tags)
}

// verifyTags re-reads every written key and fails loudly if any value
// doesn't match what was requested, per the "publish ⇒ produced
// tags equal book.id3" invariant — equivalent doesn't
// verify its own writes.
func verifyTags(path string, tags WriteSet) error {
	for k, want := range tags {
		if want == "" {
			continue
		}
		got, ok, err := ReadTag(path, k)
		if err != nil {
			return fmt.Errorf("meta: verify tag %s: %w", k, err)
		}
		if !ok || got != want {
			return &bookerr.BadFileError{
				Path: path,
				Err:  fmt.Errorf("tag %s: wrote %q, read back %q", k, want, got),
			}
		}
	}
	return nil
}

func ffmpegKeyFor(k TagKey) string {
	switch k {
	case TagAlbumArtist:
		return "album_artist"
	case TagYear:
		return "date"
	default:
		return string(k)
	}
}
