package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brandonscript/auto-m4b/internal/util"
)

// checkNASTuning reports whether the inbox is on a network filesystem and,
// if so, what retry/buffer tuning auto-m4b will apply to it.
func checkNASTuning(inboxDir string, nasMode *bool, cpuCores int) checkResult {
	tuned, err := util.AutoTuneForPath(inboxDir, "", nasMode, cpuCores)
	if err != nil {
		return checkResult{name: "NAS tuning", warning: true, message: fmt.Sprintf("could not detect filesystem type: %v", err)}
	}
	return checkResult{name: "NAS tuning", message: util.FormatNASSettings(tuned)}
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to make sure auto-m4b can operate correctly.

This command checks:
- The converter tool, ffprobe, and ffmpeg binaries
- Read access to the inbox directory
- Write access to every stage directory
- Disk space on the inbox and converted volumes

Use this command to troubleshoot issues before running the watcher.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== auto-m4b Doctor - System Diagnostics ===")
	util.InfoLog("")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var results []checkResult

	results = append(results, checkBinary("converter", cfg.M4BToolBin, "--version"))
	results = append(results, checkBinary("ffprobe", cfg.FFprobeBin, "-version"))
	results = append(results, checkBinary("ffmpeg", cfg.FFmpegBin, "-version"))

	results = append(results, checkReadableDirectory("inbox directory", cfg.InboxDir))
	for _, d := range []struct {
		name string
		path string
	}{
		{"converted directory", cfg.ConvertedDir},
		{"archive directory", cfg.ArchiveDir},
		{"backup directory", cfg.BackupDir},
		{"fix directory", cfg.FixDir},
		{"merge directory", cfg.MergeDir},
		{"build directory", cfg.BuildDir},
		{"trash directory", cfg.TrashDir},
	} {
		results = append(results, checkWritableDirectory(d.name, d.path))
	}

	results = append(results, checkDiskSpace(cfg.InboxDir, "inbox"))
	if cfg.ConvertedDir != cfg.InboxDir {
		results = append(results, checkDiskSpace(cfg.ConvertedDir, "converted"))
	}
	results = append(results, checkNASTuning(cfg.InboxDir, cfg.NASMode, cfg.CPUCores))

	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "OK"
		if r.error {
			symbol = "FAIL"
			hasErrors = true
		} else if r.warning {
			symbol = "WARN"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		switch {
		case r.error:
			util.ErrorLog("%s", line)
		case r.warning:
			util.WarnLog("%s", line)
		default:
			util.SuccessLog("%s", line)
		}
	}

	util.InfoLog("")
	switch {
	case hasErrors:
		util.ErrorLog("Some critical checks failed. Resolve errors before running auto-m4b.")
		return fmt.Errorf("system diagnostics failed")
	case hasWarnings:
		util.WarnLog("Some checks produced warnings. Review them before proceeding.")
	default:
		util.SuccessLog("All checks passed. auto-m4b is ready to watch %s.", cfg.InboxDir)
	}

	return nil
}

func checkBinary(name, bin, versionFlag string) checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := exec.CommandContext(ctx, bin, versionFlag)
	output, err := c.CombinedOutput()
	if err != nil {
		return checkResult{
			name:    name,
			error:   true,
			message: fmt.Sprintf("%q not found or not executable", bin),
		}
	}

	lines := strings.SplitN(string(output), "\n", 2)
	return checkResult{
		name:    name,
		message: strings.TrimSpace(firstNonEmpty(lines)),
	}
}

func firstNonEmpty(lines []string) string {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return l
		}
	}
	return "unknown version"
}

func checkReadableDirectory(name, path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		return checkResult{name: name, error: true, message: fmt.Sprintf("cannot access %s: %v", path, err)}
	}
	if !info.IsDir() {
		return checkResult{name: name, error: true, message: fmt.Sprintf("%s is not a directory", path)}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return checkResult{name: name, error: true, message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	return checkResult{name: name, message: fmt.Sprintf("%s (%d entries)", path, len(entries))}
}

func checkWritableDirectory(name, path string) checkResult {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return checkResult{name: name, error: true, message: fmt.Sprintf("cannot create %s: %v", path, err)}
	}
	testFile := filepath.Join(path, ".auto-m4b-write-test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{name: name, error: true, message: fmt.Sprintf("cannot write to %s: %v", path, err)}
	}
	f.Close()
	os.Remove(testFile)
	return checkResult{name: name, message: fmt.Sprintf("%s (writable)", path)}
}

func checkDiskSpace(path, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	totalBytes := stat.Blocks * uint64(stat.Bsize)
	usedBytes := totalBytes - (stat.Bfree * uint64(stat.Bsize))

	availGB := float64(availBytes) / (1024 * 1024 * 1024)
	usedPercent := float64(0)
	if totalBytes > 0 {
		usedPercent = float64(usedBytes) / float64(totalBytes) * 100
	}

	warning := false
	warningMsg := ""
	if availGB < 5 {
		warning = true
		warningMsg = " (low space)"
	} else if usedPercent > 90 {
		warning = true
		warningMsg = " (over 90% used)"
	}

	return checkResult{
		name:    fmt.Sprintf("disk space (%s)", label),
		warning: warning,
		message: fmt.Sprintf("%.1f GB available%s", availGB, warningMsg),
	}
}
