package book

import (
	"path/filepath"
	"regexp"
	"strings"
)

// ExtensionSet is a small case-insensitive set of file extensions (each
// including the leading dot), used to decide whether a path counts as an
// audio file or an "other" sidecar file for a given book.
type ExtensionSet map[string]bool

// NewExtensionSet builds an ExtensionSet from a list of extensions,
// lower-casing each one.
func NewExtensionSet(exts ...string) ExtensionSet {
	s := make(ExtensionSet, len(exts))
	for _, e := range exts {
		s[strings.ToLower(e)] = true
	}
	return s
}

// AudioExtensions is the fixed set of extensions treated as audio
// source material.
var AudioExtensions = NewExtensionSet(".mp3", ".m4a", ".m4b", ".wma")

// Allowed reports whether path's extension is a member of the set.
func (s ExtensionSet) Allowed(path string) bool {
	return s[strings.ToLower(filepath.Ext(path))]
}

// pathNoise matches trailing bracketed or parenthesized annotations and
// common release-quality suffixes that shouldn't appear in a derived
// title, e.g. " (Unabridged)", " [mp3]", " - 64kbps".
var pathNoise = regexp.MustCompile(`(?i)\s*[\[(](unabridged|abridged|mp3|m4b|audiobook)[\])]\s*$|\s*-\s*\d+\s*kbps\s*$`)

// StripPathNoise removes common non-title annotations from a directory
// basename, repeating until no further match is found (an annotation can
// follow another, e.g. "Title (Unabridged) [mp3]").
func StripPathNoise(basename string) string {
	s := basename
	for {
		stripped := pathNoise.ReplaceAllString(s, "")
		if stripped == s {
			return strings.TrimSpace(s)
		}
		s = stripped
	}
}
