package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"contentdex/internal/model"
)

// EnsureWord interns one word and returns its id, consulting the LRU
// cache first. Words are stored lowercase by the tokenizer contract.
func (s *DB) EnsureWord(ctx context.Context, text string) (int64, error) {
	if id, ok := s.wordCache.Get(text); ok {
		return id, nil
	}
	id, err := s.ensureInterned(ctx, "words", "word", text)
	if err != nil {
		return 0, err
	}
	s.wordCache.Add(text, id)
	return id, nil
}

// EnsureWords interns a set of words in batches, returning text → id.
// Cached words skip the database entirely.
func (s *DB) EnsureWords(ctx context.Context, texts []string) (map[string]int64, error) {
	out := make(map[string]int64, len(texts))
	var missing []string
	seen := make(map[string]bool, len(texts))
	for _, text := range texts {
		if seen[text] {
			continue
		}
		seen[text] = true
		if id, ok := s.wordCache.Get(text); ok {
			out[text] = id
			continue
		}
		missing = append(missing, text)
	}
	if len(missing) == 0 {
		return out, nil
	}
	sort.Strings(missing) // deterministic insert order keeps deadlocks away

	for start := 0; start < len(missing); start += s.batchSize {
		end := start + s.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		if err := s.internBatch(ctx, missing[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// internBatch inserts absent words and resolves ids for one slice.
func (s *DB) internBatch(ctx context.Context, texts []string, out map[string]int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting word batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO words (word) VALUES (?) ON CONFLICT (word) DO NOTHING`))
	if err != nil {
		return fmt.Errorf("preparing word batch: %w", err)
	}
	for _, text := range texts {
		if _, err := stmt.ExecContext(ctx, text); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("batch inserting word: %w", err)
		}
	}
	_ = stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing word batch: %w", err)
	}

	args := make([]any, len(texts))
	for i, text := range texts {
		args[i] = text
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, word FROM words WHERE word IN (`+placeholders(len(texts))+`)`),
		args...,
	)
	if err != nil {
		return fmt.Errorf("resolving word ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id   int64
			text string
		)
		if err := rows.Scan(&id, &text); err != nil {
			return fmt.Errorf("scanning word id: %w", err)
		}
		out[text] = id
		s.wordCache.Add(text, id)
	}
	return rows.Err()
}

// EnsurePunct interns a punctuation or spacing string.
func (s *DB) EnsurePunct(ctx context.Context, text string) (int64, error) {
	if id, ok := s.punctCache.Get(text); ok {
		return id, nil
	}
	id, err := s.ensureInterned(ctx, "punctuations", "punct", text)
	if err != nil {
		return 0, err
	}
	s.punctCache.Add(text, id)
	return id, nil
}

// ensureInterned is the shared insert-if-absent for the interning tables.
func (s *DB) ensureInterned(ctx context.Context, table, column, text string) (int64, error) {
	selectQ := s.rebind(fmt.Sprintf(`SELECT id FROM %s WHERE %s = ?`, table, column))
	var id int64
	err := s.db.QueryRowContext(ctx, selectQ, text).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("selecting from %s: %w", table, err)
	}

	err = s.db.QueryRowContext(ctx, s.rebind(fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (?) ON CONFLICT (%s) DO NOTHING RETURNING id`,
		table, column, column)), text,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.QueryRowContext(ctx, selectQ, text).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("interning into %s: %w", table, err)
	}
	return id, nil
}

// StoreWordFrequencies interns all words of freq and upserts one
// words_paths row per word.
func (s *DB) StoreWordFrequencies(ctx context.Context, pathID int64, freq map[string]int) error {
	if len(freq) == 0 {
		return nil
	}
	texts := make([]string, 0, len(freq))
	for text := range freq {
		texts = append(texts, text)
	}
	ids, err := s.EnsureWords(ctx, texts)
	if err != nil {
		return err
	}
	edges := make([]model.WordPathEdge, 0, len(freq))
	for text, count := range freq {
		id, ok := ids[text]
		if !ok {
			return fmt.Errorf("word %q missing after interning", text)
		}
		edges = append(edges, model.WordPathEdge{PathID: pathID, WordID: id, Count: count})
	}
	return s.UpsertWordPathCounts(ctx, edges)
}

// UpsertWordPathCounts writes word-frequency edges transactionally.
// Re-running with the same counts is a no-op.
func (s *DB) UpsertWordPathCounts(ctx context.Context, edges []model.WordPathEdge) error {
	if len(edges) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting word-path batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO words_paths (path_id, word_id, count)
		 VALUES (?, ?, ?)
		 ON CONFLICT (path_id, word_id) DO UPDATE SET count = excluded.count`))
	if err != nil {
		return fmt.Errorf("preparing word-path batch: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, e.PathID, e.WordID, e.Count); err != nil {
			return fmt.Errorf("upserting word-path edge: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing word-path batch: %w", err)
	}
	return nil
}

// WordFrequency returns the stored count for (pathID, word), or 0.
func (s *DB) WordFrequency(ctx context.Context, pathID int64, word string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT wp.count FROM words_paths wp JOIN words w ON w.id = wp.word_id
		 WHERE wp.path_id = ? AND w.word = ?`),
		pathID, word,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("selecting word frequency: %w", err)
	}
	return count, nil
}
