package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"
)

// coverFileNames are candidate image names checked before falling back to
// "first image file in the directory", in priority order.
var coverFileNames = []string{"cover.jpg", "cover.jpeg", "cover.png", "folder.jpg", "folder.jpeg", "folder.png"}

var coverExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// findCoverArt searches dirs concurrently for external cover art, bounded
// to at most maxWorkers directories in flight at once, and returns the
// first match found by dirs' order (not by goroutine completion order).
// A book with no matching image in any directory gets "" and no error:
// missing cover art is not a failure, just a fallback to
// --no-cover-image / embedded art.
func findCoverArt(dirs []string, maxWorkers int) string {
	if len(dirs) == 0 {
		return ""
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	found := make([]string, len(dirs))
	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, dir := range dirs {
		i, dir := i, dir
		p.Go(func() {
			found[i] = bestCoverIn(dir)
		})
	}
	p.Wait()

	for _, path := range found {
		if path != "" {
			return path
		}
	}
	return ""
}

// bestCoverIn returns the preferred cover image directly inside dir, or
// "" if none exists. It prefers the well-known names in coverFileNames,
// then falls back to the alphabetically first image file present.
func bestCoverIn(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	byName := make(map[string]string, len(entries))
	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !coverExtensions[ext] {
			continue
		}
		byName[strings.ToLower(name)] = filepath.Join(dir, name)
		images = append(images, filepath.Join(dir, name))
	}

	for _, candidate := range coverFileNames {
		if path, ok := byName[candidate]; ok {
			return path
		}
	}
	if len(images) == 0 {
		return ""
	}
	sort.Strings(images)
	return images[0]
}
