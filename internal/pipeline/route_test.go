package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brandonscript/auto-m4b/internal/book"
	"github.com/brandonscript/auto-m4b/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.InboxDir = t.TempDir()
	cfg.BackupDir = t.TempDir()
	cfg.MergeDir = t.TempDir()
	cfg.BuildDir = t.TempDir()
	cfg.ConvertedDir = t.TempDir()
	cfg.ArchiveDir = t.TempDir()
	cfg.FixDir = t.TempDir()
	return cfg
}

func TestRoute_FlatIsValidated(t *testing.T) {
	cfg := testConfig(t)
	basename := "My Book"
	writeFile(t, filepath.Join(cfg.InboxDir, basename, "01.mp3"), []byte("one"))
	writeFile(t, filepath.Join(cfg.InboxDir, basename, "02.mp3"), []byte("two"))

	b := book.New(cfg, basename)
	decision, err := Route(b, cfg, book.AudioExtensions)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if decision.Outcome != RouteValidated {
		t.Fatalf("expected validated, got %s (%s)", decision.Outcome, decision.Reason)
	}
	if len(b.AudioFiles) != 2 {
		t.Errorf("expected 2 audio files assigned to book, got %d", len(b.AudioFiles))
	}
}

func TestRoute_EmptyIsFailed(t *testing.T) {
	cfg := testConfig(t)
	basename := "Nothing Here"
	if err := os.MkdirAll(filepath.Join(cfg.InboxDir, basename), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	b := book.New(cfg, basename)
	decision, err := Route(b, cfg, book.AudioExtensions)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if decision.Outcome != RouteFailed {
		t.Errorf("expected failed, got %s", decision.Outcome)
	}
}

func TestRoute_MixedIsQuarantined(t *testing.T) {
	cfg := testConfig(t)
	basename := "Messy Book"
	writeFile(t, filepath.Join(cfg.InboxDir, basename, "01.mp3"), []byte("one"))
	writeFile(t, filepath.Join(cfg.InboxDir, basename, "disc", "02.mp3"), []byte("two"))

	b := book.New(cfg, basename)
	decision, err := Route(b, cfg, book.AudioExtensions)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if decision.Outcome != RouteQuarantined {
		t.Errorf("expected quarantined for a mixed layout, got %s", decision.Outcome)
	}
}

func TestRoute_FlatNestedFlattens(t *testing.T) {
	cfg := testConfig(t)
	basename := "Nested Book"
	writeFile(t, filepath.Join(cfg.InboxDir, basename, "disc", "01.mp3"), []byte("one"))
	writeFile(t, filepath.Join(cfg.InboxDir, basename, "disc", "02.mp3"), []byte("two"))

	b := book.New(cfg, basename)
	decision, err := Route(b, cfg, book.AudioExtensions)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if decision.Outcome != RouteValidated {
		t.Fatalf("expected validated after flattening, got %s (%s)", decision.Outcome, decision.Reason)
	}
	if _, err := os.Stat(filepath.Join(cfg.InboxDir, basename, "disc")); !os.IsNotExist(err) {
		t.Error("expected the nested subdir to be removed after flattening")
	}
	if _, err := os.Stat(filepath.Join(cfg.InboxDir, basename, "01.mp3")); err != nil {
		t.Errorf("expected flattened file at the book root: %v", err)
	}
}

func TestRoute_AlreadyInFixIsSkipped(t *testing.T) {
	cfg := testConfig(t)
	basename := "Already Fixed"
	writeFile(t, filepath.Join(cfg.InboxDir, basename, "01.mp3"), []byte("one"))
	writeFile(t, filepath.Join(cfg.FixDir, basename, "01.mp3"), []byte("one"))

	b := book.New(cfg, basename)
	decision, err := Route(b, cfg, book.AudioExtensions)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if decision.Outcome != RouteSkipped {
		t.Errorf("expected skipped, got %s", decision.Outcome)
	}
}
