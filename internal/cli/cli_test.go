package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contentdex/internal/model"
)

func TestStylesDisabledOffTTY(t *testing.T) {
	var buf bytes.Buffer
	s := newStyles(&buf)
	if s.enabled {
		t.Fatal("styles enabled for a non-terminal writer")
	}
	if got := s.kv("Files", "42"); strings.ContainsRune(got, '\x1b') {
		t.Errorf("escape codes in plain output: %q", got)
	}
	if got := s.errPrefix(); got != "ERROR:" {
		t.Errorf("errPrefix = %q", got)
	}
}

func TestMenuIndex(t *testing.T) {
	tests := []struct {
		line string
		n    int
		idx  int
		ok   bool
	}{
		{"1", 5, 0, true},
		{"5", 5, 4, true},
		{"0", 5, 0, false},
		{"6", 5, 0, false},
		{"abc", 5, 0, false},
		{"", 5, 0, false},
	}
	for _, tc := range tests {
		idx, ok := menuIndex(tc.line, tc.n)
		if idx != tc.idx || ok != tc.ok {
			t.Errorf("menuIndex(%q, %d) = %d,%v want %d,%v", tc.line, tc.n, idx, ok, tc.idx, tc.ok)
		}
	}
}

func TestTopCounts(t *testing.T) {
	m := map[string]int{"txt": 10, "pdf": 3, "zip": 3, "png": 1}
	got := topCounts(m, 3)
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].key != "txt" {
		t.Errorf("top = %s", got[0].key)
	}
	// ties break alphabetically
	if got[1].key != "pdf" || got[2].key != "zip" {
		t.Errorf("tie order = %s, %s", got[1].key, got[2].key)
	}
}

func TestRunSummaryPrint(t *testing.T) {
	sum := newRunSummary()
	sum.observe(model.Result{
		File:     model.FileInfo{Name: "a.txt", Ext: "txt", Size: 100},
		Response: model.StorageResponse{Status: model.StorageSuccess},
	})
	sum.observe(model.Result{
		File:    model.FileInfo{Name: "b.pdf", Ext: "pdf", Size: 200},
		ErrKind: model.KindMissingDependency,
	})

	start := time.Now()
	stats := model.RunStats{
		Total: 2, Completed: 1, Failed: 1,
		OriginalFiles: 2,
		StartTime:     start,
		EndTime:       start.Add(2 * time.Second),
	}
	var buf bytes.Buffer
	sum.print(&buf, newStyles(&buf), stats)
	out := buf.String()

	for _, want := range []string{"Run summary", "50.0%", ".txt", ".pdf", "missing_dependency"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestResolveRoot(t *testing.T) {
	if _, err := resolveRoot([]string{"/no/such/dir/at/all"}); err == nil {
		t.Error("missing path accepted")
	}

	dir := t.TempDir()
	got, err := resolveRoot([]string{dir})
	if err != nil {
		t.Fatalf("resolveRoot(%s): %v", dir, err)
	}
	if got != dir {
		t.Errorf("root = %q, want %q", got, dir)
	}

	// a single file is a valid ingestion root
	file := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(file, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = resolveRoot([]string{file})
	if err != nil {
		t.Fatalf("resolveRoot(%s): %v", file, err)
	}
	if got != file {
		t.Errorf("root = %q, want %q", got, file)
	}
}
