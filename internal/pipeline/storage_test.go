package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"contentdex/internal/model"
	"contentdex/internal/store"
	"contentdex/internal/tokenizer"
)

type storageFixture struct {
	db      *store.DB
	batch   *Batcher
	storer  *Storer
	srcID   int64
	sideID  int64
	dataDir string
}

func newStorageFixture(t *testing.T) *storageFixture {
	t.Helper()
	cfg := testConfig(t)
	db := openTestStore(t, cfg)
	srcID, sideID := testTriple(t, db)
	batch := NewBatcher(db, cfg.BatchSize, srcID, sideID)
	return &storageFixture{
		db:      db,
		batch:   batch,
		storer:  NewStorer(db, batch, zerolog.Nop()),
		srcID:   srcID,
		sideID:  sideID,
		dataDir: t.TempDir(),
	}
}

func (f *storageFixture) storeText(t *testing.T, name, content string) model.StorageResponse {
	t.Helper()
	fi := writeInputFile(t, f.dataDir, name, content)
	return f.storer.Store(context.Background(), fi, model.Text{Body: content}, f.srcID, f.sideID)
}

func TestStoreTextFile(t *testing.T) {
	f := newStorageFixture(t)
	ctx := context.Background()

	content := "Hello, world! Visit https://example.com on 2024-01-15."
	resp := f.storeText(t, "notes.txt", content)
	if resp.Status != model.StorageSuccess || resp.PathID == 0 {
		t.Fatalf("resp = %+v", resp)
	}

	status, err := f.db.PathStatus(ctx, resp.PathID)
	if err != nil {
		t.Fatal(err)
	}
	if status != model.StatusRead {
		t.Errorf("status = %s, want Read after content stored", status)
	}

	tuples, err := f.db.RetrieveContent(ctx, resp.PathID)
	if err != nil {
		t.Fatal(err)
	}
	wantTokens := tokenizer.Tokenize(content)
	if len(tuples) != len(wantTokens) {
		t.Errorf("tuples = %d, want %d", len(tuples), len(wantTokens))
	}

	title, err := f.db.RetrieveTitle(ctx, resp.PathID)
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	if len(title) == 0 {
		t.Error("no title stored")
	}
}

func TestStoreWordFrequenciesFlow(t *testing.T) {
	f := newStorageFixture(t)
	ctx := context.Background()

	resp := f.storeText(t, "repeat.txt", "apple apple apple banana")
	if resp.Status != model.StorageSuccess {
		t.Fatalf("resp = %+v", resp)
	}
	if err := f.batch.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	n, err := f.db.WordFrequency(ctx, resp.PathID, "apple")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("apple frequency = %d, want 3", n)
	}
	if n, _ = f.db.WordFrequency(ctx, resp.PathID, "banana"); n != 1 {
		t.Errorf("banana frequency = %d, want 1", n)
	}
}

func TestStoreDuplicate(t *testing.T) {
	f := newStorageFixture(t)

	first := f.storeText(t, "a.txt", "identical content")
	if first.Status != model.StorageSuccess {
		t.Fatalf("first = %+v", first)
	}

	fi := writeInputFile(t, t.TempDir(), "b.txt", "identical content")
	second := f.storer.Store(context.Background(), fi, model.Text{Body: "identical content"}, f.srcID, f.sideID)
	if second.Status != model.StorageDuplicate {
		t.Fatalf("second = %+v, want duplicate", second)
	}
	if second.PathID != first.PathID {
		t.Errorf("duplicate points at path %d, want %d", second.PathID, first.PathID)
	}
}

func TestSentinelDigestNeverDuplicate(t *testing.T) {
	f := newStorageFixture(t)
	ctx := context.Background()

	for i, name := range []string{"x1.bin", "x2.bin"} {
		fi := writeInputFile(t, f.dataDir, name, "whatever")
		fi.Digest = model.DigestNA
		resp := f.storer.Store(ctx, fi, model.Text{Body: "whatever"}, f.srcID, f.sideID)
		if resp.Status != model.StorageSuccess {
			t.Errorf("store %d = %+v, sentinel digests must not deduplicate", i, resp)
		}
	}
}

func TestUnreadableFileKeepsMetadata(t *testing.T) {
	f := newStorageFixture(t)
	ctx := context.Background()

	fi := model.FileInfo{
		Name: "ghost.txt",
		Path: filepath.Join(f.dataDir, "ghost.txt"),
		Size: 10,
		Ext:  "txt",
	}
	resp := f.storer.Store(ctx, fi, model.Text{}, f.srcID, f.sideID)
	if resp.Status != model.StorageInvalidHash {
		t.Fatalf("resp = %+v, want invalid_hash", resp)
	}
	if resp.PathID == 0 {
		t.Fatal("metadata must still be persisted")
	}
	status, err := f.db.PathStatus(ctx, resp.PathID)
	if err != nil {
		t.Fatal(err)
	}
	if status != model.StatusUnread {
		t.Errorf("status = %s, want Unread", status)
	}
}

func TestEmptyContentStaysUnread(t *testing.T) {
	f := newStorageFixture(t)
	ctx := context.Background()

	fi := writeInputFile(t, f.dataDir, "empty.txt", "")
	resp := f.storer.Store(ctx, fi, model.Text{Body: ""}, f.srcID, f.sideID)
	if resp.Status != model.StorageSuccess {
		t.Fatalf("resp = %+v", resp)
	}
	status, _ := f.db.PathStatus(ctx, resp.PathID)
	if status != model.StatusUnread {
		t.Errorf("status = %s, want Unread without content", status)
	}
	stats, err := f.db.ContentStats(ctx, resp.PathID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ChunkCount != 0 {
		t.Errorf("chunks = %d, want 0", stats.ChunkCount)
	}
}

func TestKeywordCounting(t *testing.T) {
	f := newStorageFixture(t)
	ctx := context.Background()

	wordIDs, err := f.db.EnsureWords(ctx, []string{"climate", "change"})
	if err != nil {
		t.Fatal(err)
	}
	kwID, err := f.db.CreateKeyword(ctx, []int64{wordIDs["climate"], wordIDs["change"]}, "topic")
	if err != nil {
		t.Fatal(err)
	}

	resp := f.storeText(t, "article.txt", "climate change and more climate talk")
	if resp.Status != model.StorageSuccess {
		t.Fatalf("resp = %+v", resp)
	}
	// "climate" x2, "change" x1; count is the scarcest member
	n, err := f.db.KeywordCount(ctx, resp.PathID, kwID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("keyword count = %d, want 1", n)
	}

	partial := f.storeText(t, "partial.txt", "climate climate climate")
	if n, _ = f.db.KeywordCount(ctx, partial.PathID, kwID); n != 0 {
		t.Errorf("partial match counted: %d, want 0", n)
	}
}

func TestTitleFromEmailSubject(t *testing.T) {
	f := newStorageFixture(t)
	ctx := context.Background()

	fi := writeInputFile(t, f.dataDir, "mail.eml", "raw message bytes")
	ex := model.Email{Messages: []model.EmailMessage{{Subject: "Quarterly Budget Review", Body: "numbers attached"}}}
	resp := f.storer.Store(ctx, fi, ex, f.srcID, f.sideID)
	if resp.Status != model.StorageSuccess {
		t.Fatalf("resp = %+v", resp)
	}

	title, err := f.db.RetrieveTitle(ctx, resp.PathID)
	if err != nil {
		t.Fatal(err)
	}
	want, err := f.db.EnsureWords(ctx, []string{"quarterly", "budget", "review"})
	if err != nil {
		t.Fatal(err)
	}
	if len(title) != 3 || title[0] != want["quarterly"] || title[2] != want["review"] {
		t.Errorf("title word ids = %v, want subject words %v", title, want)
	}
}

func TestDigestSentinels(t *testing.T) {
	f := newStorageFixture(t)

	if d := Digest(filepath.Join(f.dataDir, "missing.txt"), 10); d != model.DigestError {
		t.Errorf("missing file digest = %q", d)
	}
	if d := Digest("irrelevant", hashMaxBytes+1); d != model.DigestSkippedLarge {
		t.Errorf("oversized digest = %q", d)
	}

	fi := writeInputFile(t, f.dataDir, "real.txt", "content")
	d := Digest(fi.Path, fi.Size)
	if !model.ValidDigest(d) {
		t.Errorf("digest %q not valid", d)
	}
}

func TestTitleTruncated(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "x"
	}
	got := titleFor(model.FileInfo{Name: long}, model.Text{})
	if len([]rune(got)) != titleMaxRunes {
		t.Errorf("title length = %d, want %d", len([]rune(got)), titleMaxRunes)
	}
}
