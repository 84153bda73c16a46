package model

import (
	"strings"
	"time"
)

// Source is a logical provenance bucket for ingested files (e.g. a dataset
// owner). Created lazily on first use and never deleted by the engine.
type Source struct {
	ID         int64
	Name       string
	Country    string
	Job        string
	Importance float64
	CreatedOn  time.Time
}

// Side is a secondary partitioning dimension orthogonal to Source.
type Side struct {
	ID         int64
	Name       string
	Importance float64
	CreatedOn  time.Time
}

// FileStatus tracks whether a path's text content has been extracted and
// stored. Paths start Unread and are promoted to Read only after content
// chunks land.
type FileStatus string

const (
	StatusUnread FileStatus = "Unread"
	StatusRead   FileStatus = "Read"
)

// Sentinel digest values. A digest carrying one of these never participates
// in duplicate detection.
const (
	DigestNA           = "N/A"
	DigestSkippedLarge = "SKIPPED_LARGE_FILE"
	DigestError        = "ERROR"
)

// FileInfo describes one file queued for ingestion. Ext is the lowercase
// extension without the leading dot. Digest may be empty or a sentinel
// until the storage pipeline resolves it.
type FileInfo struct {
	Name         string
	Path         string
	Size         int64
	Ext          string
	ModTime      time.Time
	Digest       string
	ParentPathID int64 // 0 when the file is not an extracted child
	Depth        int   // container nesting depth; 0 for top-level files
}

// FileInfoFor builds a FileInfo from a path and stat data.
func FileInfoFor(path, name string, size int64, modTime time.Time) FileInfo {
	return FileInfo{
		Name:    name,
		Path:    path,
		Size:    size,
		Ext:     ExtOf(name),
		ModTime: modTime,
	}
}

// ExtOf returns the lowercase extension of name without the dot, or "".
func ExtOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// ValidDigest reports whether d is a usable SHA-256 hex digest (64 chars,
// not a sentinel).
func ValidDigest(d string) bool {
	switch d {
	case "", DigestNA, DigestSkippedLarge, DigestError:
		return false
	}
	return len(d) == 64
}

// Token is one lossless tokenizer emission. The original text region is
// reconstructed as PunctBefore + Word + PunctAfter + Spacing.
type Token struct {
	Word        string
	PunctBefore string
	PunctAfter  string
	Spacing     string
}

// TokenTuple is the persisted form of a Token with text interned to IDs.
// Optional fields are nil when the corresponding text was empty.
type TokenTuple struct {
	WordID      uint32
	PunctBefore *uint32
	PunctAfter  *uint32
	Spacing     *uint32
}

// StorageStatus classifies the outcome of one storage pipeline run.
type StorageStatus string

const (
	StorageSuccess     StorageStatus = "success"
	StorageDuplicate   StorageStatus = "duplicate"
	StorageInvalidHash StorageStatus = "invalid_hash"
	StorageError       StorageStatus = "error"
)

// StorageResponse is the synchronous result of persisting one file.
// PathID is the new path for Success, or the pre-existing path for
// Duplicate.
type StorageResponse struct {
	Status  StorageStatus
	PathID  int64
	Message string
}

// Result is one dispatcher outcome. The dispatcher emits exactly one
// Result per submitted file, synthesizing Error results for timeouts,
// panics and submission failures.
type Result struct {
	File      FileInfo
	Response  StorageResponse
	ErrKind   ErrorKind
	Detail    string
	Extracted bool // true when the file came out of a container
	Elapsed   time.Duration
}

// Failed reports whether the result counts toward the failure statistics.
// Duplicates count as completed.
func (r Result) Failed() bool {
	if r.ErrKind != "" {
		return true
	}
	return r.Response.Status == StorageError || r.Response.Status == StorageInvalidHash
}

// ContentStats summarizes the stored chunks of one path.
type ContentStats struct {
	ChunkCount      int
	CompressedBytes int64
}

// Keyword is a stored multi-word keyword definition. WordIDs are the
// interned member words; a path matches when every member word occurs in
// it, with the match count being the minimum member frequency.
type Keyword struct {
	ID       int64
	WordIDs  []int64
	Category string
}

// RunStats aggregates per-run counters maintained by the failure governor.
type RunStats struct {
	Total          int
	Completed      int
	Failed         int
	Duplicates     int
	ExtractedFiles int
	OriginalFiles  int
	StartTime      time.Time
	EndTime        time.Time
}
