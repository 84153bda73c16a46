package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contentdex/internal/model"
)

// CreateKeyword stores a multi-word keyword definition and returns its id.
func (s *DB) CreateKeyword(ctx context.Context, wordIDs []int64, category string) (int64, error) {
	if len(wordIDs) == 0 {
		return 0, fmt.Errorf("keyword needs at least one word")
	}
	blob, err := EncodeWordIDs(wordIDs)
	if err != nil {
		return 0, fmt.Errorf("encoding keyword: %w", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO keywords (keyword_data, category) VALUES (?, ?) RETURNING id`),
		blob, category,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting keyword: %w", err)
	}
	return id, nil
}

// ListKeywords loads all keyword definitions with decoded word lists.
func (s *DB) ListKeywords(ctx context.Context) ([]model.Keyword, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, keyword_data, category FROM keywords ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing keywords: %w", err)
	}
	defer rows.Close()

	var out []model.Keyword
	for rows.Next() {
		var (
			kw   model.Keyword
			blob []byte
		)
		if err := rows.Scan(&kw.ID, &blob, &kw.Category); err != nil {
			return nil, fmt.Errorf("scanning keyword: %w", err)
		}
		if kw.WordIDs, err = DecodeWordIDs(blob); err != nil {
			return nil, fmt.Errorf("decoding keyword %d: %w", kw.ID, err)
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

// UpsertKeywordCounts writes keyword match counts for one path.
func (s *DB) UpsertKeywordCounts(ctx context.Context, pathID int64, counts map[int64]int) error {
	if len(counts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting keyword batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO keywords_paths (path_id, keyword_id, count)
		 VALUES (?, ?, ?)
		 ON CONFLICT (path_id, keyword_id) DO UPDATE SET count = excluded.count`))
	if err != nil {
		return fmt.Errorf("preparing keyword batch: %w", err)
	}
	defer stmt.Close()

	for keywordID, count := range counts {
		if _, err := stmt.ExecContext(ctx, pathID, keywordID, count); err != nil {
			return fmt.Errorf("upserting keyword count: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing keyword batch: %w", err)
	}
	return nil
}

// KeywordCount returns the stored match count for (pathID, keywordID).
func (s *DB) KeywordCount(ctx context.Context, pathID, keywordID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT count FROM keywords_paths WHERE path_id = ? AND keyword_id = ?`),
		pathID, keywordID,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("selecting keyword count: %w", err)
	}
	return count, nil
}
