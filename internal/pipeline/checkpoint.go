package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"contentdex/internal/model"
)

// Checkpoint records which top-level files a run has finished so an
// interrupted ingestion can resume without reprocessing. Saved as JSON
// under the checkpoint directory, keyed by run ID.
type Checkpoint struct {
	RunID     string    `json:"run_id"`
	Root      string    `json:"root"`
	Source    string    `json:"source"`
	Side      string    `json:"side"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Processed maps finished top-level file paths to their digests.
	Processed map[string]string `json:"processed"`
	Stats     model.RunStats    `json:"stats"`

	mu   sync.Mutex
	path string
}

// NewCheckpoint creates a checkpoint for a fresh run.
func NewCheckpoint(dir, runID, root, source, side string) (*Checkpoint, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &Checkpoint{
		RunID:     runID,
		Root:      root,
		Source:    source,
		Side:      side,
		StartedAt: time.Now().UTC(),
		Processed: make(map[string]string),
		path:      filepath.Join(dir, "run_"+runID+".json"),
	}, nil
}

// LoadCheckpoint restores a previous run's checkpoint by run ID.
func LoadCheckpoint(dir, runID string) (*Checkpoint, error) {
	path := filepath.Join(dir, "run_"+runID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if cp.Processed == nil {
		cp.Processed = make(map[string]string)
	}
	cp.path = path
	return &cp, nil
}

// MarkDone records one finished top-level file with its digest.
func (c *Checkpoint) MarkDone(path, digest string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Processed[path] = digest
}

// Done reports whether a file finished in a previous attempt of this run.
func (c *Checkpoint) Done(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.Processed[path]
	return ok
}

// Save persists the checkpoint atomically via a temp file rename.
func (c *Checkpoint) Save(stats model.RunStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Stats = stats
	c.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
