package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/brandonscript/auto-m4b/internal/book"
	"github.com/brandonscript/auto-m4b/internal/pipeline"
)

func TestPromoteStandaloneFiles_MovesIntoOwnFolder(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.InboxDir, "Loose Chapter.mp3"), []byte("audio"))

	fo := pipeline.NewFileOps(cfg.InboxDir, cfg.NASMode)
	if err := PromoteStandaloneFiles(context.Background(), cfg, book.AudioExtensions, fo); err != nil {
		t.Fatalf("PromoteStandaloneFiles failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.InboxDir, "Loose Chapter.mp3")); !os.IsNotExist(err) {
		t.Error("expected the standalone file to be moved out of the inbox root")
	}
	if _, err := os.Stat(filepath.Join(cfg.InboxDir, "Loose Chapter", "Loose Chapter.mp3")); err != nil {
		t.Errorf("expected the file inside its own folder: %v", err)
	}
}

func TestPromoteStandaloneFiles_AlreadyM4BGoesToConverted(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.InboxDir, "Finished Book.m4b"), []byte("audio"))

	fo := pipeline.NewFileOps(cfg.InboxDir, cfg.NASMode)
	if err := PromoteStandaloneFiles(context.Background(), cfg, book.AudioExtensions, fo); err != nil {
		t.Fatalf("PromoteStandaloneFiles failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.ConvertedDir, "Finished Book.m4b")); err != nil {
		t.Errorf("expected the finished m4b in the converted dir: %v", err)
	}
}

func TestPromoteStandaloneFiles_CollisionGetsCopySuffix(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.ConvertedDir, "Finished Book.m4b"), []byte("existing"))
	writeFile(t, filepath.Join(cfg.InboxDir, "Finished Book.m4b"), []byte("incoming"))

	fo := pipeline.NewFileOps(cfg.InboxDir, cfg.NASMode)
	if err := PromoteStandaloneFiles(context.Background(), cfg, book.AudioExtensions, fo); err != nil {
		t.Fatalf("PromoteStandaloneFiles failed: %v", err)
	}

	renamed := filepath.Join(cfg.ConvertedDir, "Finished Book (copy).m4b")
	content, err := os.ReadFile(renamed)
	if err != nil {
		t.Fatalf("expected the colliding file renamed to %s: %v", renamed, err)
	}
	if string(content) != "incoming" {
		t.Errorf("expected the renamed file to hold the incoming content, got %q", content)
	}
	original, err := os.ReadFile(filepath.Join(cfg.ConvertedDir, "Finished Book.m4b"))
	if err != nil {
		t.Fatalf("expected the original file untouched: %v", err)
	}
	if string(original) != "existing" {
		t.Errorf("expected the original file's content preserved, got %q", original)
	}
}

func TestUniqueDestination(t *testing.T) {
	dir := t.TempDir()
	first := uniqueDestination(dir, "Book", ".m4b")
	if filepath.Base(first) != "Book.m4b" {
		t.Errorf("expected an unclaimed name to be used as-is, got %s", first)
	}

	writeFile(t, first, []byte("x"))
	second := uniqueDestination(dir, "Book", ".m4b")
	if filepath.Base(second) != "Book (copy).m4b" {
		t.Errorf("expected the first collision to get (copy), got %s", second)
	}

	writeFile(t, second, []byte("x"))
	third := uniqueDestination(dir, "Book", ".m4b")
	if filepath.Base(third) != "Book (copy 1).m4b" {
		t.Errorf("expected the second collision to get (copy 1), got %s", third)
	}
}
