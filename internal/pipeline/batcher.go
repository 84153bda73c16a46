package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"contentdex/internal/model"
)

const (
	retryAttempts     = 3
	retryInitialDelay = 100 * time.Millisecond
	retryFactor       = 2
)

// withRetry runs op up to retryAttempts times with exponential backoff,
// retrying only failures that look transient.
func withRetry(ctx context.Context, op func() error) error {
	delay := retryInitialDelay
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err = op(); err == nil || !model.IsTransient(err) {
			return err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= retryFactor
	}
	return err
}

// pendingEdge is one word-frequency row awaiting word ID resolution at
// flush time.
type pendingEdge struct {
	pathID int64
	word   string
	count  int
}

// Batcher buffers word interning, hash registration and word-frequency
// edges, flushing each queue when it reaches the configured size. All
// buffered writes are idempotent upserts, so a retried flush is safe.
type Batcher struct {
	store    model.Store
	size     int
	sourceID int64
	sideID   int64

	mu     sync.Mutex
	words  []string
	hashes []string
	edges  []pendingEdge
}

func NewBatcher(store model.Store, size int, sourceID, sideID int64) *Batcher {
	if size <= 0 {
		size = 500
	}
	return &Batcher{store: store, size: size, sourceID: sourceID, sideID: sideID}
}

// AddWords queues words for interning, flushing full batches.
func (b *Batcher) AddWords(ctx context.Context, words []string) error {
	b.mu.Lock()
	b.words = append(b.words, words...)
	var flush []string
	if len(b.words) >= b.size {
		flush = b.words
		b.words = nil
	}
	b.mu.Unlock()
	if flush == nil {
		return nil
	}
	return withRetry(ctx, func() error {
		_, err := b.store.EnsureWords(ctx, flush)
		return err
	})
}

// AddHash queues a content digest for the dedup index.
func (b *Batcher) AddHash(ctx context.Context, digest string) error {
	b.mu.Lock()
	b.hashes = append(b.hashes, digest)
	var flush []string
	if len(b.hashes) >= b.size {
		flush = b.hashes
		b.hashes = nil
	}
	b.mu.Unlock()
	if flush == nil {
		return nil
	}
	return withRetry(ctx, func() error {
		return b.store.EnsureHashes(ctx, flush, b.sourceID, b.sideID)
	})
}

// AddFrequencies queues one path's word-frequency rows. The vocabulary
// travels through the word queue as well, so word rows land even when a
// later edge flush fails; IDs are resolved when the edges drain.
func (b *Batcher) AddFrequencies(ctx context.Context, pathID int64, freq map[string]int) error {
	words := make([]string, 0, len(freq))
	for word := range freq {
		words = append(words, word)
	}
	sort.Strings(words)
	if err := b.AddWords(ctx, words); err != nil {
		return err
	}

	b.mu.Lock()
	for _, word := range words {
		b.edges = append(b.edges, pendingEdge{pathID: pathID, word: word, count: freq[word]})
	}
	var flush []pendingEdge
	if len(b.edges) >= b.size {
		flush = b.edges
		b.edges = nil
	}
	b.mu.Unlock()
	if flush == nil {
		return nil
	}
	return b.flushEdges(ctx, flush)
}

// flushEdges resolves the pending words to IDs in one bulk intern and
// upserts the edge rows.
func (b *Batcher) flushEdges(ctx context.Context, flush []pendingEdge) error {
	words := make([]string, 0, len(flush))
	seen := make(map[string]bool, len(flush))
	for _, e := range flush {
		if !seen[e.word] {
			seen[e.word] = true
			words = append(words, e.word)
		}
	}
	return withRetry(ctx, func() error {
		ids, err := b.store.EnsureWords(ctx, words)
		if err != nil {
			return err
		}
		rows := make([]model.WordPathEdge, 0, len(flush))
		for _, e := range flush {
			rows = append(rows, model.WordPathEdge{PathID: e.pathID, WordID: ids[e.word], Count: e.count})
		}
		return b.store.UpsertWordPathCounts(ctx, rows)
	})
}

// Flush drains every queue regardless of fill level. Called at run end.
// The three queues are independent, so they drain concurrently.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	words, hashes, edges := b.words, b.hashes, b.edges
	b.words, b.hashes, b.edges = nil, nil, nil
	b.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	if len(words) > 0 {
		g.Go(func() error {
			return withRetry(ctx, func() error {
				_, err := b.store.EnsureWords(ctx, words)
				return err
			})
		})
	}
	if len(hashes) > 0 {
		g.Go(func() error {
			return withRetry(ctx, func() error {
				return b.store.EnsureHashes(ctx, hashes, b.sourceID, b.sideID)
			})
		})
	}
	if len(edges) > 0 {
		g.Go(func() error {
			return b.flushEdges(ctx, edges)
		})
	}
	return g.Wait()
}
