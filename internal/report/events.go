package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventError      EventType = "error"
	EventQuarantine EventType = "quarantine"
	EventConvert    EventType = "convert"
	EventPublish    EventType = "publish"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the pipeline
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	FileKey   string            `json:"file_key,omitempty"`
	SrcPath   string            `json:"src_path,omitempty"`
	DestPath  string            `json:"dest_path,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Generate filename with timestamp
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	// Open file for writing
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	// Filter by minimum level
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil // Skip events below minimum level
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogQuarantine logs a book being routed to the fix folder, covering
// both the "quarantined (fixable)" and "quarantined (conversion
// failure)" exits.
func (l *EventLogger) LogQuarantine(bookKey, srcPath, reason string) error {
	return l.Log(&Event{
		Level:   LevelWarning,
		Event:   EventQuarantine,
		FileKey: bookKey,
		SrcPath: srcPath,
		Reason:  reason,
	})
}

// LogConvert logs the outcome of one converter invocation for a book.
func (l *EventLogger) LogConvert(bookKey string, duration time.Duration, ok bool, errSummary string) error {
	level := LevelInfo
	if !ok {
		level = LevelError
	}
	return l.Log(&Event{
		Level:    level,
		Event:    EventConvert,
		FileKey:  bookKey,
		Duration: duration.Milliseconds(),
		Error:    errSummary,
	})
}

// LogPublish logs a book's artifact landing in the converted root.
func (l *EventLogger) LogPublish(bookKey, destPath string) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventPublish,
		FileKey:  bookKey,
		DestPath: destPath,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, srcPath string, err error) error {
	return l.Log(&Event{
		Level:   LevelError,
		Event:   event,
		SrcPath: srcPath,
		Error:   err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
