package store

import (
	"context"
	"fmt"
)

// Init creates the schema if it does not exist. Idempotent.
func (s *DB) Init(ctx context.Context) error {
	for _, stmt := range s.schemaStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func (s *DB) schemaStatements() []string {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	blob := "BLOB"
	if s.dialect == dialectPostgres {
		id = "BIGSERIAL PRIMARY KEY"
		blob = "BYTEA"
	}
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sources (
			id %s,
			name TEXT NOT NULL UNIQUE,
			country TEXT NOT NULL DEFAULT '',
			job TEXT NOT NULL DEFAULT '',
			importance REAL NOT NULL DEFAULT 0.5,
			created_on TEXT NOT NULL
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sides (
			id %s,
			name TEXT NOT NULL UNIQUE,
			importance REAL NOT NULL DEFAULT 0.5,
			created_on TEXT NOT NULL
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS hashes (
			id %s,
			digest TEXT NOT NULL,
			source_id BIGINT NOT NULL REFERENCES sources(id),
			side_id BIGINT NOT NULL REFERENCES sides(id)
		)`, id),
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_hashes_triple ON hashes (digest, source_id, side_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS paths (
			id %s,
			file_name TEXT NOT NULL,
			file_path TEXT NOT NULL,
			size_bytes BIGINT NOT NULL DEFAULT 0,
			file_type TEXT NOT NULL DEFAULT '',
			file_status TEXT NOT NULL DEFAULT 'Unread',
			file_date TEXT NOT NULL DEFAULT '',
			created_on TEXT NOT NULL,
			hash_id BIGINT NOT NULL REFERENCES hashes(id)
		)`, id),
		`CREATE INDEX IF NOT EXISTS idx_paths_hash ON paths (hash_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS contents (
			id %s,
			content_data %s NOT NULL,
			content_date TEXT NOT NULL,
			path_id BIGINT NOT NULL REFERENCES paths(id) ON DELETE CASCADE
		)`, id, blob),
		`CREATE INDEX IF NOT EXISTS idx_contents_path ON contents (path_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS words (
			id %s,
			word TEXT NOT NULL UNIQUE
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS punctuations (
			id %s,
			punct TEXT NOT NULL UNIQUE
		)`, id),
		`CREATE TABLE IF NOT EXISTS words_paths (
			path_id BIGINT NOT NULL REFERENCES paths(id) ON DELETE CASCADE,
			word_id BIGINT NOT NULL REFERENCES words(id),
			count BIGINT NOT NULL,
			PRIMARY KEY (path_id, word_id)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS titles (
			id %s,
			title_data %s NOT NULL,
			title_status TEXT NOT NULL DEFAULT 'Main',
			parent_title_id BIGINT REFERENCES titles(id),
			path_id BIGINT NOT NULL REFERENCES paths(id) ON DELETE CASCADE
		)`, id, blob),
		`CREATE INDEX IF NOT EXISTS idx_titles_path ON titles (path_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS keywords (
			id %s,
			keyword_data %s NOT NULL,
			category TEXT NOT NULL DEFAULT ''
		)`, id, blob),
		`CREATE TABLE IF NOT EXISTS keywords_paths (
			path_id BIGINT NOT NULL REFERENCES paths(id) ON DELETE CASCADE,
			keyword_id BIGINT NOT NULL REFERENCES keywords(id),
			count BIGINT NOT NULL,
			PRIMARY KEY (path_id, keyword_id)
		)`,
	}
}

// allowedCountTables limits CountRows to known tables.
var allowedCountTables = map[string]bool{
	"sources": true, "sides": true, "hashes": true, "paths": true,
	"contents": true, "words": true, "punctuations": true,
	"words_paths": true, "titles": true, "keywords": true, "keywords_paths": true,
}

// CountRows returns the row count of one schema table. Test support.
func (s *DB) CountRows(ctx context.Context, table string) (int64, error) {
	if !allowedCountTables[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}
