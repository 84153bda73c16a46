package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contentdex/internal/model"
)

// InsertPath creates a path row for the file. Multiple rows with the same
// textual path but different hashes are legal; no uniqueness applies.
func (s *DB) InsertPath(ctx context.Context, fi model.FileInfo, hashID int64, status model.FileStatus) (int64, error) {
	fileDate := ""
	if !fi.ModTime.IsZero() {
		fileDate = fi.ModTime.UTC().Format(time.RFC3339)
	}
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO paths (file_name, file_path, size_bytes, file_type, file_status, file_date, created_on, hash_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		fi.Name, fi.Path, fi.Size, fi.Ext, string(status), fileDate, nowStamp(), hashID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting path for %s: %w", fi.Name, err)
	}
	return id, nil
}

// SetPathStatus updates the read status of a path.
func (s *DB) SetPathStatus(ctx context.Context, pathID int64, status model.FileStatus) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE paths SET file_status = ? WHERE id = ?`),
		string(status), pathID,
	)
	if err != nil {
		return fmt.Errorf("updating path %d status: %w", pathID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// PathStatus returns the current status of a path.
func (s *DB) PathStatus(ctx context.Context, pathID int64) (model.FileStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT file_status FROM paths WHERE id = ?`),
		pathID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("selecting path %d status: %w", pathID, err)
	}
	return model.FileStatus(status), nil
}
