package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brandonscript/auto-m4b/internal/book"
	"github.com/brandonscript/auto-m4b/internal/config"
	"github.com/brandonscript/auto-m4b/internal/pipeline"
	"github.com/brandonscript/auto-m4b/internal/util"
)

// PromoteStandaloneFiles moves every audio file sitting directly in the
// inbox root into its own folder, so the classifier downstream always
// sees one candidate directory per book. An already-converted .m4b goes
// straight to the converted directory instead, disambiguated with
// "(copy)"/"(copy N)" on a name collision.
func PromoteStandaloneFiles(ctx context.Context, cfg *config.Config, exts book.ExtensionSet, fo *pipeline.FileOps) error {
	entries, err := os.ReadDir(cfg.InboxDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !exts.Allowed(name) {
			continue
		}

		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		src := filepath.Join(cfg.InboxDir, name)

		if strings.EqualFold(ext, ".m4b") {
			util.InfoLog("%s is already an m4b, moving directly to the converted books folder", name)
			dest := uniqueDestination(cfg.ConvertedDir, stem, ext)
			if _, err := fo.MoveFile(ctx, src, dest); err != nil {
				return fmt.Errorf("watch: promote standalone m4b %s: %w", name, err)
			}
			continue
		}

		util.InfoLog("Moving standalone file %s into its own folder", name)
		folder := filepath.Join(cfg.InboxDir, stem)
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return fmt.Errorf("watch: create folder for standalone file %s: %w", name, err)
		}
		if _, err := fo.MoveFile(ctx, src, filepath.Join(folder, name)); err != nil {
			return fmt.Errorf("watch: promote standalone file %s: %w", name, err)
		}
	}
	return nil
}

// uniqueDestination returns dir/stem+ext, or dir/stem (copy)+ext, dir/stem
// (copy N)+ext, ... if that path is already taken, avoiding data loss when
// a book of the same name has already been converted.
func uniqueDestination(dir, stem, ext string) string {
	candidate := filepath.Join(dir, stem+ext)
	if _, err := os.Stat(candidate); err != nil {
		return candidate
	}

	candidate = filepath.Join(dir, fmt.Sprintf("%s (copy)%s", stem, ext))
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (copy %d)%s", stem, i, ext))
	}
}
