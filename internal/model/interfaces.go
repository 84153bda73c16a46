package model

import "context"

// Store is the relational persistence surface consumed by the storage
// pipeline. Implementations must honor the uniqueness of
// (digest, source_id, side_id) and the Unread→Read status promotion order.
type Store interface {
	Init(ctx context.Context) error
	Close() error

	// Sources and sides are created lazily on first use.
	GetOrCreateSource(ctx context.Context, name, country, job string, importance float64) (Source, error)
	ListSources(ctx context.Context, search string, limit int) ([]Source, error)
	GetOrCreateSide(ctx context.Context, name string, importance float64) (Side, error)
	ListSides(ctx context.Context, search string, limit int) ([]Side, error)

	// Deduplication index.
	EnsureHash(ctx context.Context, digest string, sourceID, sideID int64) (int64, error)
	EnsureHashes(ctx context.Context, digests []string, sourceID, sideID int64) error
	LookupDuplicate(ctx context.Context, digest string, sourceID, sideID int64) (bool, int64, error)

	// Path metadata.
	InsertPath(ctx context.Context, fi FileInfo, hashID int64, status FileStatus) (int64, error)
	SetPathStatus(ctx context.Context, pathID int64, status FileStatus) error
	PathStatus(ctx context.Context, pathID int64) (FileStatus, error)

	// Compressed token-tuple chunks.
	StoreContentChunks(ctx context.Context, pathID int64, tuples []TokenTuple) error
	RetrieveContent(ctx context.Context, pathID int64) ([]TokenTuple, error)
	ContentStats(ctx context.Context, pathID int64) (ContentStats, error)

	// Word and punctuation interning.
	EnsureWord(ctx context.Context, text string) (int64, error)
	EnsureWords(ctx context.Context, texts []string) (map[string]int64, error)
	EnsurePunct(ctx context.Context, text string) (int64, error)
	StoreWordFrequencies(ctx context.Context, pathID int64, freq map[string]int) error
	UpsertWordPathCounts(ctx context.Context, edges []WordPathEdge) error

	// Titles.
	StoreTitle(ctx context.Context, wordIDs []int64, pathID, parentPathID int64) (int64, error)
	RetrieveTitle(ctx context.Context, pathID int64) ([]int64, error)

	// Keywords.
	ListKeywords(ctx context.Context) ([]Keyword, error)
	UpsertKeywordCounts(ctx context.Context, pathID int64, counts map[int64]int) error
}

// WordPathEdge is one word-frequency row destined for the words_paths table.
type WordPathEdge struct {
	PathID int64
	WordID int64
	Count  int
}

// Extractor converts one file into an Extracted variant. Failures are
// reported through the ExtractError variant, not a Go error.
type Extractor interface {
	Extract(ctx context.Context, fi FileInfo) Extracted
	Extensions() []string
}

// OCRBackend recognizes text in a raster image.
type OCRBackend interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// PDFBackend exposes per-page access to a PDF so the extractor can apply
// its text-PDF vs image-PDF classification.
type PDFBackend interface {
	PageCount(ctx context.Context, path string) (int, error)
	// PageText returns the directly extractable text of a page (1-based).
	PageText(ctx context.Context, path string, page int) (string, error)
	// PageImage renders a page to an encoded raster image for OCR,
	// returning the image bytes and pixel dimensions.
	PageImage(ctx context.Context, path string, page int) ([]byte, int, int, error)
}

// OfficeBackend extracts office documents (docx/xlsx/pptx and legacy
// formats) into the appropriate variant.
type OfficeBackend interface {
	Extract(ctx context.Context, path, ext string) (Extracted, error)
}
