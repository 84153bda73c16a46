package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWalkSingleFileRoot(t *testing.T) {
	dir := t.TempDir()
	fi := writeInputFile(t, dir, "alone.txt", "single file ingestion")

	files, err := Walk(fi.Path)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
	if files[0].Path != fi.Path || files[0].Ext != "txt" {
		t.Errorf("walked %+v", files[0])
	}
}

func TestWalkSkipsHidden(t *testing.T) {
	dir := t.TempDir()
	writeInputFile(t, dir, "visible.txt", "kept")
	writeInputFile(t, dir, ".hidden.txt", "skipped")
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeInputFile(t, filepath.Join(dir, ".git"), "config", "skipped with the dir")

	files, err := Walk(dir)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(files) != 1 || files[0].Name != "visible.txt" {
		t.Errorf("walked %v, want visible.txt only", files)
	}

	// an explicitly named hidden file is still ingested
	hidden := filepath.Join(dir, ".hidden.txt")
	files, err = Walk(hidden)
	if err != nil {
		t.Fatalf("walk hidden root: %v", err)
	}
	if len(files) != 1 || files[0].Path != hidden {
		t.Errorf("hidden root walked %v", files)
	}
}
