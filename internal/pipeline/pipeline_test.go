package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"contentdex/internal/config"
	"contentdex/internal/model"
	"contentdex/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DB.Path = filepath.Join(t.TempDir(), "pipeline.db")
	cfg.ExtractionFolder = t.TempDir()
	cfg.CheckpointDir = t.TempDir()
	return &cfg
}

func openTestStore(t *testing.T, cfg *config.Config) *store.DB {
	t.Helper()
	db, err := store.Open(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Init(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

func testTriple(t *testing.T, db *store.DB) (int64, int64) {
	t.Helper()
	ctx := context.Background()
	src, err := db.GetOrCreateSource(ctx, "acme", "US", "press", 0.5)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	side, err := db.GetOrCreateSide(ctx, "left", 0.5)
	if err != nil {
		t.Fatalf("side: %v", err)
	}
	return src.ID, side.ID
}

func writeInputFile(t *testing.T, dir, name, content string) model.FileInfo {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return model.FileInfoFor(path, name, info.Size(), info.ModTime())
}
