package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// GlobalLog is the append-only, line-oriented run log: one TSV row per
// terminal outcome, independent of the structured JSONL events
// report.EventLogger also emits for the same outcome. Each Append opens
// the file in append mode, writes one row and closes it again, since each
// row is written once and never revisited.
type GlobalLog struct {
	mu   sync.Mutex
	path string
}

// NewGlobalLog builds a GlobalLog writing to path.
func NewGlobalLog(path string) *GlobalLog {
	return &GlobalLog{path: path}
}

// Append writes one row: <ts>\t<key>\t<SUCCESS|FAILED>\t<elapsed_seconds|->.
func (g *GlobalLog) Append(key string, success bool, elapsed time.Duration) error {
	status := "FAILED"
	elapsedField := "-"
	if success {
		status = "SUCCESS"
		elapsedField = strconv.Itoa(int(elapsed.Round(time.Second).Seconds()))
	}
	line := fmt.Sprintf("%s\t%s\t%s\t%s\n", time.Now().Format(time.RFC3339), key, status, elapsedField)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return fmt.Errorf("state: create global log dir: %w", err)
	}
	f, err := os.OpenFile(g.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("state: open global log: %w", err)
	}
	defer f.Close()

	_, err = f.WriteString(line)
	return err
}

// Path returns the underlying log file path.
func (g *GlobalLog) Path() string {
	return g.path
}
