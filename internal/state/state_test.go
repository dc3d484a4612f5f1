package state

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func TestPIDFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto-m4b.pid")
	if err := WritePIDFile(path, "/media/inbox"); err != nil {
		t.Fatalf("WritePIDFile failed: %v", err)
	}

	pid, err := ReadPID(path)
	if err != nil {
		t.Fatalf("ReadPID failed: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("expected pid %d, got %d", os.Getpid(), pid)
	}
	if !IsRunning(path) {
		t.Error("expected IsRunning to be true for our own pid")
	}

	if err := RemovePIDFile(path); err != nil {
		t.Fatalf("RemovePIDFile failed: %v", err)
	}
	if _, err := ReadPID(path); err == nil {
		t.Error("expected ReadPID to fail after removal")
	}
}

func TestRemovePIDFile_MissingIsNoop(t *testing.T) {
	if err := RemovePIDFile(filepath.Join(t.TempDir(), "does-not-exist")); err != nil {
		t.Errorf("expected no error removing a missing pidfile, got %v", err)
	}
}

func TestWriteFatalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto-m4b.fatal")
	if err := WriteFatalFile(path, os.ErrClosed); err != nil {
		t.Fatalf("WriteFatalFile failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fatal file: %v", err)
	}
	if len(content) == 0 {
		t.Error("expected non-empty fatal file content")
	}
}

func TestGlobalLogAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto-m4b.log")
	g := NewGlobalLog(path)

	if err := g.Append("My Book", true, 90*time.Second); err != nil {
		t.Fatalf("Append success failed: %v", err)
	}
	if err := g.Append("Broken Book", false, 0); err != nil {
		t.Fatalf("Append failure failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read global log: %v", err)
	}
	lines := splitLines(string(content))
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d: %q", len(lines), content)
	}
	if !contains(lines[0], "My Book") || !contains(lines[0], "SUCCESS") {
		t.Errorf("unexpected success row: %q", lines[0])
	}
	if !contains(lines[1], "Broken Book") || !contains(lines[1], "FAILED") || !contains(lines[1], "-") {
		t.Errorf("unexpected failure row: %q", lines[1])
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	return lines
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func TestFailedBooks(t *testing.T) {
	fb := NewFailedBooks()
	if fb.Contains("Book A") {
		t.Error("expected a fresh set to contain nothing")
	}

	fb.Add("Book A")
	if !fb.Contains("Book A") {
		t.Error("expected Book A to be tracked after Add")
	}
	if env := os.Getenv("FAILED_BOOKS"); env != "Book A" {
		t.Errorf("expected FAILED_BOOKS=%q, got %q", "Book A", env)
	}

	fb.Add("Book B")
	if env := os.Getenv("FAILED_BOOKS"); env != "Book A,Book B" {
		t.Errorf("expected sorted comma-joined env, got %q", env)
	}

	fb.Remove("Book A")
	if fb.Contains("Book A") {
		t.Error("expected Book A to be cleared after Remove")
	}
	if env := os.Getenv("FAILED_BOOKS"); env != "Book B" {
		t.Errorf("expected FAILED_BOOKS=%q, got %q", "Book B", env)
	}

	fb.Reset()
	if fb.Contains("Book B") {
		t.Error("expected Reset to clear every tracked key")
	}
	if env := os.Getenv("FAILED_BOOKS"); env != "" {
		t.Errorf("expected empty FAILED_BOOKS after Reset, got %q", env)
	}
}

func TestNameMatches(t *testing.T) {
	if !NameMatches(nil, "Anything at All") {
		t.Error("a nil filter should match everything")
	}

	re := regexp.MustCompile(`(?i)tolkien`)
	if !NameMatches(re, "The Hobbit - J.R.R. Tolkien") {
		t.Error("expected a case-insensitive substring match to succeed")
	}
	if NameMatches(re, "The Hobbit - Unknown Author") {
		t.Error("expected a non-matching name to fail the filter")
	}
}
