package book

// Stage is a closed enumeration of the named filesystem roots a book can
// occupy, rather than a free-form string. Root and SetActiveDir both
// panic on an unrecognised stage.
type Stage string

const (
	StageInbox     Stage = "inbox"
	StageBackup    Stage = "backup"
	StageMerge     Stage = "merge"
	StageBuild     Stage = "build"
	StageBuildTmp  Stage = "build_tmp"
	StageConverted Stage = "converted"
	StageArchive   Stage = "archive"
	StageFix       Stage = "fix"
)

var allStages = map[Stage]bool{
	StageInbox:     true,
	StageBackup:    true,
	StageMerge:     true,
	StageBuild:     true,
	StageBuildTmp:  true,
	StageConverted: true,
	StageArchive:   true,
	StageFix:       true,
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	return allStages[s]
}

// FileType is the original source file type, which determines whether
// conversion is a copy-only passthrough or a full re-encode.
type FileType string

const (
	FileTypeM4B FileType = "m4b"
	FileTypeMP3 FileType = "mp3"
	FileTypeM4A FileType = "m4a"
	FileTypeWMA FileType = "wma"
)

// IsPassthrough reports whether files of this type are remuxed rather
// than re-encoded by the converter.
func (ft FileType) IsPassthrough() bool {
	return ft == FileTypeM4A || ft == FileTypeM4B
}

// FileTypeFromExt maps a lowercase file extension (with leading dot) to a
// FileType. Unknown extensions return ("", false).
func FileTypeFromExt(ext string) (FileType, bool) {
	switch ext {
	case ".m4b":
		return FileTypeM4B, true
	case ".mp3":
		return FileTypeMP3, true
	case ".m4a":
		return FileTypeM4A, true
	case ".wma":
		return FileTypeWMA, true
	default:
		return "", false
	}
}
