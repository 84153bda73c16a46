package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contentdex/internal/model"
)

// EnsureHash inserts the (digest, source, side) triple if absent and
// returns its id. Race-safe: a concurrent insert of the same triple is
// resolved by re-selecting.
func (s *DB) EnsureHash(ctx context.Context, digest string, sourceID, sideID int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id FROM hashes WHERE digest = ? AND source_id = ? AND side_id = ?`),
		digest, sourceID, sideID,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("selecting hash: %w", err)
	}

	err = s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO hashes (digest, source_id, side_id)
		 VALUES (?, ?, ?)
		 ON CONFLICT (digest, source_id, side_id) DO NOTHING
		 RETURNING id`),
		digest, sourceID, sideID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// lost the race
		err = s.db.QueryRowContext(ctx, s.rebind(
			`SELECT id FROM hashes WHERE digest = ? AND source_id = ? AND side_id = ?`),
			digest, sourceID, sideID,
		).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("inserting hash: %w", err)
	}
	return id, nil
}

// EnsureHashes inserts many digests for one (source, side) in a single
// transaction, skipping triples that already exist. Used by the batch
// buffers ahead of per-file processing.
func (s *DB) EnsureHashes(ctx context.Context, digests []string, sourceID, sideID int64) error {
	if len(digests) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting hash batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO hashes (digest, source_id, side_id)
		 VALUES (?, ?, ?)
		 ON CONFLICT (digest, source_id, side_id) DO NOTHING`))
	if err != nil {
		return fmt.Errorf("preparing hash batch: %w", err)
	}
	defer stmt.Close()

	for _, digest := range digests {
		if !model.ValidDigest(digest) {
			continue
		}
		if _, err := stmt.ExecContext(ctx, digest, sourceID, sideID); err != nil {
			return fmt.Errorf("batch inserting hash: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing hash batch: %w", err)
	}
	return nil
}

// LookupDuplicate reports whether the triple already owns a path. An
// orphan hash (row present, no path) is not a duplicate; the pipeline
// reuses the hash row. Sentinel digests never match.
func (s *DB) LookupDuplicate(ctx context.Context, digest string, sourceID, sideID int64) (bool, int64, error) {
	if !model.ValidDigest(digest) {
		return false, 0, nil
	}
	var hashID int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id FROM hashes WHERE digest = ? AND source_id = ? AND side_id = ?`),
		digest, sourceID, sideID,
	).Scan(&hashID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("looking up hash: %w", err)
	}

	var pathID int64
	err = s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id FROM paths WHERE hash_id = ? ORDER BY id LIMIT 1`),
		hashID,
	).Scan(&pathID)
	if errors.Is(err, sql.ErrNoRows) {
		// orphan hash
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("looking up owning path: %w", err)
	}
	return true, pathID, nil
}
