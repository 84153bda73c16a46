// Package actionlog writes the append-only per-run action log: one JSON
// line per recorded event under logs/action_log_<timestamp>.txt. Every
// write goes straight to the file descriptor so the log survives crashes.
package actionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	// the downstream log consumers key on "timestamp", not zerolog's
	// default "time"
	zerolog.TimestampFieldName = "timestamp"
}

// Recorder appends structured events to the per-run action log file.
// Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	file *os.File
	log  zerolog.Logger
	path string
}

// New creates the log directory if needed and opens a fresh action log
// named after the wall clock, tagged with the run ID.
func New(dir, runID string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	name := fmt.Sprintf("action_log_%s.txt", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening action log: %w", err)
	}
	logger := zerolog.New(file).With().Timestamp().Str("run_id", runID).Logger()
	return &Recorder{file: file, log: logger, path: path}, nil
}

// Path returns the on-disk location of the log file.
func (r *Recorder) Path() string {
	return r.path
}

// Record appends one event. details may be nil.
func (r *Recorder) Record(level zerolog.Level, typ, description string, details map[string]any) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := r.log.WithLevel(level).Str("type", typ).Str("description", description)
	if len(details) > 0 {
		ev = ev.Fields(map[string]any{"details": details})
	}
	ev.Send()
}

// Info records an informational event.
func (r *Recorder) Info(typ, description string, details map[string]any) {
	r.Record(zerolog.InfoLevel, typ, description, details)
}

// Warn records a warning event.
func (r *Recorder) Warn(typ, description string, details map[string]any) {
	r.Record(zerolog.WarnLevel, typ, description, details)
}

// Error records an error event.
func (r *Recorder) Error(typ, description string, details map[string]any) {
	r.Record(zerolog.ErrorLevel, typ, description, details)
}

// Close syncs and closes the underlying file.
func (r *Recorder) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.file.Sync(); err != nil {
		_ = r.file.Close()
		return fmt.Errorf("syncing action log: %w", err)
	}
	return r.file.Close()
}
