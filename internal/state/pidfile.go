// Package state holds the process-wide, cross-tick bookkeeping the
// watcher needs beyond a single Audiobook: the PID/sentinel files, the
// append-only global log, and the in-memory set of books to skip until
// the inbox changes.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// WritePIDFile writes the running process's PID and start banner to path.
func WritePIDFile(path, inboxDir string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("state: create pidfile dir: %w", err)
	}
	content := fmt.Sprintf(
		"auto-m4b started at %s, watching %s\npid: %d\n",
		time.Now().Format(time.RFC3339), inboxDir, os.Getpid(),
	)
	return os.WriteFile(path, []byte(content), 0o644)
}

// RemovePIDFile removes path, tolerating a pidfile that no longer exists.
func RemovePIDFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadPID extracts the pid recorded in path by WritePIDFile.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if rest, ok := strings.CutPrefix(line, "pid:"); ok {
			return strconv.Atoi(strings.TrimSpace(rest))
		}
	}
	return 0, fmt.Errorf("state: no pid line found in %s", path)
}

// IsRunning reports whether the process recorded in the pidfile at path
// is still alive, used to refuse starting a second watcher against the
// same inbox.
func IsRunning(path string) bool {
	pid, err := ReadPID(path)
	if err != nil {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// WriteFatalFile writes the sentinel file a FatalProcessError triggers,
// signalling a supervisor that the process needs a human before it
// restarts cleanly.
func WriteFatalFile(path string, cause error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("state: create fatal file dir: %w", err)
	}
	content := fmt.Sprintf("%s\n%v\n", time.Now().Format(time.RFC3339), cause)
	return os.WriteFile(path, []byte(content), 0o644)
}
