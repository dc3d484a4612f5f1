package book

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

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

func TestNew_DerivesEveryStageRoot(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "My Book")

	if b.Root(StageInbox) != filepath.Join(cfg.InboxDir, "My Book") {
		t.Errorf("unexpected inbox root: %s", b.Root(StageInbox))
	}
	if b.Root(StageBackup) != filepath.Join(cfg.BackupDir, "My Book") {
		t.Errorf("unexpected backup root: %s", b.Root(StageBackup))
	}
	if b.ActiveStage() != StageInbox {
		t.Errorf("expected initial active stage inbox, got %s", b.ActiveStage())
	}
}

func TestNew_BuildTmpRootIsUnique(t *testing.T) {
	cfg := testConfig(t)
	a := New(cfg, "Same Book")
	b := New(cfg, "Same Book")

	if a.Root(StageBuildTmp) == b.Root(StageBuildTmp) {
		t.Errorf("expected distinct build_tmp roots for overlapping ticks, both got %s", a.Root(StageBuildTmp))
	}
	if !strings.HasPrefix(a.Root(StageBuildTmp), filepath.Join(cfg.BuildDir, "Same Book-tmpfiles-")) {
		t.Errorf("unexpected build_tmp root shape: %s", a.Root(StageBuildTmp))
	}
}

func TestRoot_PanicsOnUnrecognisedStage(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "My Book")

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on unrecognised stage")
		}
	}()
	b.Root(Stage("bogus"))
}

func TestSetActiveDir(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "My Book")

	b.SetActiveDir(StageMerge)
	if b.ActiveStage() != StageMerge {
		t.Errorf("expected active stage merge, got %s", b.ActiveStage())
	}
	if b.ActiveRoot() != b.Root(StageMerge) {
		t.Errorf("ActiveRoot should match Root(StageMerge)")
	}
}

func TestConvertedFileAndBuildFile(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "My Book")

	wantConverted := filepath.Join(cfg.ConvertedDir, "My Book", "My Book.m4b")
	if b.ConvertedFile() != wantConverted {
		t.Errorf("ConvertedFile: got %s, want %s", b.ConvertedFile(), wantConverted)
	}
	wantBuild := filepath.Join(cfg.BuildDir, "My Book", "My Book.m4b")
	if b.BuildFile() != wantBuild {
		t.Errorf("BuildFile: got %s, want %s", b.BuildFile(), wantBuild)
	}
}

func TestWriteLog_AppendsTimestampedLines(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "My Book")

	if err := b.WriteLog("first line"); err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	if err := b.WriteLog("second line"); err != nil {
		t.Fatalf("WriteLog: %v", err)
	}

	content, err := os.ReadFile(b.LogPath())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), content)
	}
	if !strings.Contains(lines[0], "first line") || !strings.Contains(lines[1], "second line") {
		t.Errorf("unexpected log content: %q", content)
	}
}

func TestNumFiles_CountsOnlyAllowedExtensions(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "My Book")

	writeTestFile(t, filepath.Join(b.Root(StageInbox), "01.mp3"), "a")
	writeTestFile(t, filepath.Join(b.Root(StageInbox), "02.mp3"), "b")
	writeTestFile(t, filepath.Join(b.Root(StageInbox), "cover.jpg"), "c")

	n, err := b.NumFiles(StageInbox, AudioExtensions)
	if err != nil {
		t.Fatalf("NumFiles: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 audio files, got %d", n)
	}
}

func TestNumFiles_MissingStageRootIsZero(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "Never Staged")

	n, err := b.NumFiles(StageBackup, AudioExtensions)
	if err != nil {
		t.Fatalf("NumFiles on missing root should not error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
}

func TestSize_BytesAndHuman(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "My Book")
	writeTestFile(t, filepath.Join(b.Root(StageInbox), "01.mp3"), strings.Repeat("x", 2048))

	_, bytes, err := b.Size(StageInbox, SizeBytes)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if bytes != 2048 {
		t.Errorf("expected 2048 bytes, got %d", bytes)
	}

	human, _, err := b.Size(StageInbox, SizeHuman)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if human == "" {
		t.Error("expected non-empty human-readable size")
	}
}

func TestExtractPathInfo_FillsMissingTitleOnly(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "A Great Book (Unabridged)")

	b.ExtractPathInfo()
	if !b.ID3.Title.Ok() {
		t.Fatal("expected a derived title")
	}
	if b.ID3.Title.Value != "A Great Book" {
		t.Errorf("expected stripped title, got %q", b.ID3.Title.Value)
	}

	b2 := New(cfg, "Another Book")
	b2.ID3.Title = Present("Tagged Title")
	b2.ExtractPathInfo()
	if b2.ID3.Title.Value != "Tagged Title" {
		t.Errorf("ExtractPathInfo should not overwrite an already-present title, got %q", b2.ID3.Title.Value)
	}
}

func TestCopyLogTo_MissingLogIsNotAnError(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "Never Logged")

	dest := filepath.Join(t.TempDir(), "copied.log")
	if err := b.CopyLogTo(dest); err != nil {
		t.Fatalf("CopyLogTo with no source log should be a no-op: %v", err)
	}
	if _, err := os.Stat(dest); err == nil {
		t.Error("expected no destination file to be created")
	}
}

func TestCopyLogTo_CopiesExistingLog(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "My Book")
	if err := b.WriteLog("hello"); err != nil {
		t.Fatalf("WriteLog: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "fix", "copied.log")
	if err := b.CopyLogTo(dest); err != nil {
		t.Fatalf("CopyLogTo: %v", err)
	}
	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read copied log: %v", err)
	}
	if !strings.Contains(string(content), "hello") {
		t.Errorf("copied log missing content: %q", content)
	}
}

func TestString(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, "My Book")
	if b.String() != "My Book" {
		t.Errorf("expected String() to return basename, got %q", b.String())
	}
}

func writeTestFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
