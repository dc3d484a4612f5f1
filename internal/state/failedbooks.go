package state

import (
	"os"
	"sort"
	"strings"
	"sync"
)

const failedBooksEnvVar = "FAILED_BOOKS"

// FailedBooks tracks book keys that failed or were quarantined in the
// current run so later ticks skip them until the key is removed or the
// set is reset. Every mutation is mirrored to the FAILED_BOOKS
// environment variable as a comma-joined list (NO_FIX books stay in
// failed_books — see DESIGN.md).
type FailedBooks struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewFailedBooks builds an empty set.
func NewFailedBooks() *FailedBooks {
	fb := &FailedBooks{keys: make(map[string]struct{})}
	fb.sync()
	return fb
}

// Add marks key as failed for the remainder of this run.
func (f *FailedBooks) Add(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = struct{}{}
	f.sync()
}

// Remove clears key, e.g. after it converts successfully on a later tick.
func (f *FailedBooks) Remove(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	f.sync()
}

// Contains reports whether key is currently marked failed.
func (f *FailedBooks) Contains(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[key]
	return ok
}

// Reset clears every tracked key, e.g. when the inbox directory's mtime
// changes and previously failed books deserve another attempt.
func (f *FailedBooks) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = make(map[string]struct{})
	f.sync()
}

// sync must be called with f.mu held.
func (f *FailedBooks) sync() {
	keys := make([]string, 0, len(f.keys))
	for k := range f.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	os.Setenv(failedBooksEnvVar, strings.Join(keys, ","))
}
