package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"contentdex/internal/config"
	"contentdex/internal/extract"
	"contentdex/internal/model"
	"contentdex/internal/store"
)

type dispatcherFixture struct {
	cfg     *config.Config
	db      *store.DB
	reg     *extract.Registry
	batch   *Batcher
	d       *Dispatcher
	dataDir string
}

func newDispatcherFixture(t *testing.T, tweak func(*config.Config)) *dispatcherFixture {
	t.Helper()
	cfg := testConfig(t)
	if tweak != nil {
		tweak(cfg)
	}
	db := openTestStore(t, cfg)
	srcID, sideID := testTriple(t, db)
	batch := NewBatcher(db, cfg.BatchSize, srcID, sideID)
	storer := NewStorer(db, batch, zerolog.Nop())
	reg := extract.NewRegistry(cfg, extract.Backends{}, zerolog.Nop())
	return &dispatcherFixture{
		cfg:     cfg,
		db:      db,
		reg:     reg,
		batch:   batch,
		d:       NewDispatcher(cfg, reg, storer, srcID, sideID, zerolog.Nop(), nil),
		dataDir: t.TempDir(),
	}
}

// run submits the files, drains the dispatcher and returns all results.
func (f *dispatcherFixture) run(t *testing.T, files ...model.FileInfo) []model.Result {
	t.Helper()
	f.d.Start(context.Background())
	for _, fi := range files {
		f.d.Submit(fi)
	}
	f.d.Drain()

	var results []model.Result
	for res := range f.d.Results() {
		results = append(results, res)
	}
	return results
}

func TestOneResultPerFile(t *testing.T) {
	f := newDispatcherFixture(t, nil)

	files := []model.FileInfo{
		writeInputFile(t, f.dataDir, "a.txt", "alpha content"),
		writeInputFile(t, f.dataDir, "b.md", "# beta"),
		writeInputFile(t, f.dataDir, "c.xyz", "no extractor for this"),
		{Name: "ghost.txt", Path: filepath.Join(f.dataDir, "ghost.txt"), Size: 5, Ext: "txt"},
	}
	results := f.run(t, files...)

	if len(results) != len(files) {
		t.Fatalf("results = %d, want %d", len(results), len(files))
	}
	seen := make(map[string]bool)
	for _, res := range results {
		if seen[res.File.Path] {
			t.Errorf("duplicate result for %s", res.File.Path)
		}
		seen[res.File.Path] = true
	}
}

func TestUnsupportedTypeStillStoresMetadata(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	fi := writeInputFile(t, f.dataDir, "blob.xyz", "opaque")

	results := f.run(t, fi)
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	res := results[0]
	if res.ErrKind != model.KindUnsupportedType {
		t.Errorf("kind = %s", res.ErrKind)
	}
	if res.Response.PathID == 0 {
		t.Error("metadata not persisted for unsupported file")
	}
}

func TestZipChildrenIngested(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	ctx := context.Background()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"first.txt":  "first child content",
		"second.txt": "second child content",
	} {
		fw, _ := w.Create(name)
		_, _ = fw.Write([]byte(content))
	}
	_ = w.Close()

	path := filepath.Join(f.dataDir, "bundle.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	info, _ := os.Stat(path)
	fi := model.FileInfoFor(path, "bundle.zip", info.Size(), info.ModTime())

	results := f.run(t, fi)
	if len(results) != 3 {
		t.Fatalf("results = %d, want container + 2 children", len(results))
	}

	var parentID int64
	children := 0
	for _, res := range results {
		if res.File.Name == "bundle.zip" {
			if res.Response.Status != model.StorageSuccess {
				t.Errorf("container = %+v", res.Response)
			}
			parentID = res.Response.PathID
			continue
		}
		children++
		if !res.Extracted {
			t.Errorf("child %s not flagged extracted", res.File.Name)
		}
		if res.File.Depth != 1 {
			t.Errorf("child depth = %d", res.File.Depth)
		}
		if res.Response.Status != model.StorageSuccess {
			t.Errorf("child %s = %+v", res.File.Name, res.Response)
		}
		status, err := f.db.PathStatus(ctx, res.Response.PathID)
		if err != nil {
			t.Fatal(err)
		}
		if status != model.StatusRead {
			t.Errorf("child %s status = %s", res.File.Name, status)
		}
	}
	if children != 2 {
		t.Fatalf("children = %d", children)
	}
	for _, res := range results {
		if res.Extracted && res.File.ParentPathID != parentID {
			t.Errorf("child parent = %d, want %d", res.File.ParentPathID, parentID)
		}
	}
}

func TestMagicByteCorrectionRoutes(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	fi := writeInputFile(t, f.dataDir, "scan.dat", "%PDF-1.4 fake body")

	results := f.run(t, fi)
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	res := results[0]
	if res.File.Name != "scan.dat.pdf" {
		t.Errorf("name = %q, want corrected scan.dat.pdf", res.File.Name)
	}
	// no PDF backend wired, so routing to the pdf extractor is visible
	// through the missing dependency failure
	if res.ErrKind != model.KindMissingDependency {
		t.Errorf("kind = %s", res.ErrKind)
	}
}

type slowExtractor struct{ delay time.Duration }

func (s slowExtractor) Extract(ctx context.Context, fi model.FileInfo) model.Extracted {
	select {
	case <-time.After(s.delay):
		return model.Text{Body: "finished late"}
	case <-ctx.Done():
		return model.ExtractError{Kind: model.KindTimeout, Detail: "canceled"}
	}
}

func (slowExtractor) Extensions() []string { return []string{"slow"} }

func TestTaskTimeout(t *testing.T) {
	f := newDispatcherFixture(t, func(cfg *config.Config) {
		cfg.TaskTimeout = 50 * time.Millisecond
	})
	f.reg.Register(slowExtractor{delay: 5 * time.Second})
	fi := writeInputFile(t, f.dataDir, "stuck.slow", "payload")

	start := time.Now()
	results := f.run(t, fi)
	if time.Since(start) > 2*time.Second {
		t.Fatal("drain waited for the stuck task")
	}
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].ErrKind != model.KindTimeout {
		t.Errorf("kind = %s, want timeout", results[0].ErrKind)
	}
}

type panicExtractor struct{}

func (panicExtractor) Extract(ctx context.Context, fi model.FileInfo) model.Extracted {
	panic("extractor blew up")
}

func (panicExtractor) Extensions() []string { return []string{"boom"} }

func TestPanicIsolation(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	f.reg.Register(panicExtractor{})

	files := []model.FileInfo{
		writeInputFile(t, f.dataDir, "bad.boom", "trigger"),
		writeInputFile(t, f.dataDir, "good.txt", "survives the panic"),
	}
	results := f.run(t, files...)
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	byName := make(map[string]model.Result)
	for _, res := range results {
		byName[res.File.Name] = res
	}
	if byName["bad.boom"].ErrKind != model.KindInternal {
		t.Errorf("panic kind = %s", byName["bad.boom"].ErrKind)
	}
	if byName["good.txt"].Failed() {
		t.Errorf("healthy file failed: %+v", byName["good.txt"])
	}
}

func TestDepthCapPersistsMetadataOnly(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	ctx := context.Background()

	fi := writeInputFile(t, f.dataDir, "deep.txt", "too deep to read")
	fi.Depth = maxDepth + 1

	results := f.run(t, fi)
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	res := results[0]
	if res.ErrKind != model.KindMaxDepthExceeded {
		t.Errorf("kind = %s", res.ErrKind)
	}
	if res.Response.PathID == 0 {
		t.Fatal("metadata must be persisted for over-deep children")
	}
	status, err := f.db.PathStatus(ctx, res.Response.PathID)
	if err != nil {
		t.Fatal(err)
	}
	if status != model.StatusUnread {
		t.Errorf("status = %s, content must not be extracted", status)
	}
}

// hashFailStore simulates a dedup index outage on the per-file write path.
type hashFailStore struct {
	model.Store
}

func (hashFailStore) EnsureHash(ctx context.Context, digest string, sourceID, sideID int64) (int64, error) {
	return 0, errors.New("hashes insert rejected")
}

func TestDigestRegisteredWhenStoreFails(t *testing.T) {
	cfg := testConfig(t)
	db := openTestStore(t, cfg)
	srcID, sideID := testTriple(t, db)
	failing := hashFailStore{Store: db}
	batch := NewBatcher(failing, cfg.BatchSize, srcID, sideID)
	storer := NewStorer(failing, batch, zerolog.Nop())
	reg := extract.NewRegistry(cfg, extract.Backends{}, zerolog.Nop())
	d := NewDispatcher(cfg, reg, storer, srcID, sideID, zerolog.Nop(), nil)

	fi := writeInputFile(t, t.TempDir(), "doomed.txt", "indexed despite the outage")
	d.Start(context.Background())
	d.Submit(fi)
	d.Drain()

	var results []model.Result
	for res := range d.Results() {
		results = append(results, res)
	}
	if len(results) != 1 || results[0].Response.Status != model.StorageError {
		t.Fatalf("results = %+v, want a storage error", results)
	}

	// the digest still reaches the dedup index via the batch queue
	if err := batch.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	n, err := db.CountRows(context.Background(), "hashes")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("hashes = %d, want 1 registered through the batch queue", n)
	}
}

func TestSmallBatchFlushedOnDrain(t *testing.T) {
	f := newDispatcherFixture(t, nil)

	files := []model.FileInfo{
		writeInputFile(t, f.dataDir, "a.txt", "one"),
		writeInputFile(t, f.dataDir, "b.csv", "x,y"),
		writeInputFile(t, f.dataDir, "c.json", `{"k":1}`),
	}
	results := f.run(t, files...)
	if len(results) != 3 {
		t.Fatalf("partial batch lost: results = %d", len(results))
	}
	for _, res := range results {
		if res.Response.Status != model.StorageSuccess {
			t.Errorf("%s = %+v", res.File.Name, res.Response)
		}
	}
}
