package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"contentdex/internal/model"
	"contentdex/internal/tokenizer"
)

// files beyond this size are never hashed; they carry a sentinel digest
// and bypass duplicate detection
const hashMaxBytes = 100 << 20

const titleMaxRunes = 200

// Storer runs the per-file storage pipeline. Metadata persistence is the
// pivot: failures before the path row exists fail the file, failures after
// it degrade to warnings and the file still counts as stored.
type Storer struct {
	store model.Store
	batch *Batcher
	log   zerolog.Logger

	kwOnce   sync.Once
	kwErr    error
	keywords []model.Keyword
}

func NewStorer(store model.Store, batch *Batcher, logger zerolog.Logger) *Storer {
	return &Storer{store: store, batch: batch, log: logger}
}

// Digest computes the SHA-256 hex digest of the file, substituting
// sentinels for oversized or unreadable files.
func Digest(path string, size int64) string {
	if size > hashMaxBytes {
		return model.DigestSkippedLarge
	}
	f, err := os.Open(path)
	if err != nil {
		return model.DigestError
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return model.DigestError
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Store persists one extracted file for the given source and side.
func (s *Storer) Store(ctx context.Context, fi model.FileInfo, ex model.Extracted, sourceID, sideID int64) model.StorageResponse {
	if fi.Digest == "" {
		fi.Digest = Digest(fi.Path, fi.Size)
	}

	if model.ValidDigest(fi.Digest) {
		dup, existingID, err := s.store.LookupDuplicate(ctx, fi.Digest, sourceID, sideID)
		if err != nil {
			return errResponse("duplicate lookup", err)
		}
		if dup {
			return model.StorageResponse{
				Status:  model.StorageDuplicate,
				PathID:  existingID,
				Message: fmt.Sprintf("duplicate of path %d", existingID),
			}
		}
	}

	hashID, err := s.store.EnsureHash(ctx, fi.Digest, sourceID, sideID)
	if err != nil {
		return errResponse("hash insert", err)
	}

	pathID, err := s.store.InsertPath(ctx, fi, hashID, model.StatusUnread)
	if err != nil {
		return errResponse("path insert", err)
	}

	switch fi.Digest {
	case model.DigestError:
		return model.StorageResponse{
			Status:  model.StorageInvalidHash,
			PathID:  pathID,
			Message: "content unreadable, metadata stored",
		}
	case model.DigestSkippedLarge:
		return model.StorageResponse{
			Status:  model.StorageInvalidHash,
			PathID:  pathID,
			Message: "file too large to hash, metadata stored",
		}
	}

	// metadata is durable from here on; content and index failures
	// degrade rather than fail the file
	flat := tokenizer.Sanitize(Flatten(ex))
	tokens := tokenizer.Tokenize(flat)

	stored := false
	var wordIDs map[string]int64
	if len(tokens) > 0 {
		wordIDs, err = s.storeContent(ctx, pathID, tokens)
		if err != nil {
			s.warn(fi, pathID, "content", err)
		} else {
			stored = true
		}
	}

	if stored {
		freq := tokenizer.Frequencies(tokens)
		if err := s.batch.AddFrequencies(ctx, pathID, freq); err != nil {
			s.warn(fi, pathID, "word frequencies", err)
		}
		if err := s.storeKeywordCounts(ctx, pathID, freq, wordIDs); err != nil {
			s.warn(fi, pathID, "keyword counts", err)
		}
	}

	if err := s.storeTitle(ctx, pathID, fi, ex); err != nil {
		s.warn(fi, pathID, "title", err)
	}

	if stored {
		if err := s.store.SetPathStatus(ctx, pathID, model.StatusRead); err != nil {
			s.warn(fi, pathID, "status promotion", err)
		}
	}

	return model.StorageResponse{Status: model.StorageSuccess, PathID: pathID}
}

// storeContent interns the token vocabulary and persists the compressed
// tuple chunks. Returns the word→ID map for reuse by later steps.
func (s *Storer) storeContent(ctx context.Context, pathID int64, tokens []model.Token) (map[string]int64, error) {
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		words = append(words, tok.Word)
	}
	wordIDs, err := s.store.EnsureWords(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("intern words: %w", err)
	}

	punctIDs := make(map[string]int64)
	tuples := make([]model.TokenTuple, 0, len(tokens))
	for _, tok := range tokens {
		wid := wordIDs[tok.Word]
		if wid < 0 || wid > math.MaxUint32 {
			return nil, fmt.Errorf("word id %d out of tuple range", wid)
		}
		tuple := model.TokenTuple{WordID: uint32(wid)}
		if tuple.PunctBefore, err = s.punctRef(ctx, punctIDs, tok.PunctBefore); err != nil {
			return nil, err
		}
		if tuple.PunctAfter, err = s.punctRef(ctx, punctIDs, tok.PunctAfter); err != nil {
			return nil, err
		}
		if tuple.Spacing, err = s.punctRef(ctx, punctIDs, tok.Spacing); err != nil {
			return nil, err
		}
		tuples = append(tuples, tuple)
	}

	if err := withRetry(ctx, func() error {
		return s.store.StoreContentChunks(ctx, pathID, tuples)
	}); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}
	return wordIDs, nil
}

func (s *Storer) punctRef(ctx context.Context, cache map[string]int64, text string) (*uint32, error) {
	if text == "" {
		return nil, nil
	}
	id, ok := cache[text]
	if !ok {
		var err error
		id, err = s.store.EnsurePunct(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("intern punctuation: %w", err)
		}
		cache[text] = id
	}
	if id < 0 || id > math.MaxUint32 {
		return nil, fmt.Errorf("punctuation id %d out of tuple range", id)
	}
	v := uint32(id)
	return &v, nil
}

// storeKeywordCounts matches stored keywords against the file vocabulary.
// A keyword matches only when every member word occurs; the count is the
// scarcest member's frequency.
func (s *Storer) storeKeywordCounts(ctx context.Context, pathID int64, freq map[string]int, wordIDs map[string]int64) error {
	s.kwOnce.Do(func() {
		s.keywords, s.kwErr = s.store.ListKeywords(ctx)
	})
	if s.kwErr != nil {
		return fmt.Errorf("list keywords: %w", s.kwErr)
	}
	if len(s.keywords) == 0 {
		return nil
	}

	idCount := make(map[int64]int, len(freq))
	for word, count := range freq {
		if id, ok := wordIDs[word]; ok {
			idCount[id] = count
		}
	}
	counts := tokenizer.MatchKeywords(idCount, s.keywords)
	if len(counts) == 0 {
		return nil
	}
	return s.store.UpsertKeywordCounts(ctx, pathID, counts)
}

func (s *Storer) storeTitle(ctx context.Context, pathID int64, fi model.FileInfo, ex model.Extracted) error {
	title := titleFor(fi, ex)
	words := tokenizer.Words(title)
	if len(words) == 0 {
		return nil
	}
	wordIDs, err := s.store.EnsureWords(ctx, words)
	if err != nil {
		return fmt.Errorf("intern title words: %w", err)
	}
	ids := make([]int64, 0, len(words))
	for _, w := range words {
		ids = append(ids, wordIDs[w])
	}
	if _, err := s.store.StoreTitle(ctx, ids, pathID, fi.ParentPathID); err != nil {
		return fmt.Errorf("store title: %w", err)
	}
	return nil
}

// titleFor picks the display title: document-provided title, then email
// subject, then the filename.
func titleFor(fi model.FileInfo, ex model.Extracted) string {
	title := fi.Name
	switch v := ex.(type) {
	case model.Paged:
		if v.Title != "" {
			title = v.Title
		}
	case model.Email:
		if len(v.Messages) > 0 && v.Messages[0].Subject != "" {
			title = v.Messages[0].Subject
		}
	}
	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		title = string(runes[:titleMaxRunes])
	}
	return title
}

func (s *Storer) warn(fi model.FileInfo, pathID int64, step string, err error) {
	s.log.Warn().
		Err(err).
		Str("file", fi.Name).
		Int64("path_id", pathID).
		Str("step", step).
		Msg("storage step degraded")
}

func errResponse(step string, err error) model.StorageResponse {
	return model.StorageResponse{
		Status:  model.StorageError,
		Message: fmt.Sprintf("%s: %v", step, err),
	}
}
