package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contentdex/internal/model"
)

// StoreTitle persists a tokenized title for pathID. When parentPathID is
// non-zero and that path already owns a title, the new row becomes a
// Branch pointing at it; otherwise it is a Main title.
func (s *DB) StoreTitle(ctx context.Context, wordIDs []int64, pathID, parentPathID int64) (int64, error) {
	blob, err := EncodeWordIDs(wordIDs)
	if err != nil {
		return 0, fmt.Errorf("encoding title: %w", err)
	}

	status := "Main"
	var parentTitleID sql.NullInt64
	if parentPathID > 0 {
		id, err := s.titleIDForPath(ctx, parentPathID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return 0, err
		}
		if err == nil {
			status = "Branch"
			parentTitleID = sql.NullInt64{Int64: id, Valid: true}
		}
	}

	var id int64
	err = s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO titles (title_data, title_status, parent_title_id, path_id)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`),
		blob, status, parentTitleID, pathID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting title for path %d: %w", pathID, err)
	}
	return id, nil
}

// RetrieveTitle returns the word-ID list of the path's title.
func (s *DB) RetrieveTitle(ctx context.Context, pathID int64) ([]int64, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT title_data FROM titles WHERE path_id = ? ORDER BY id LIMIT 1`),
		pathID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting title for path %d: %w", pathID, err)
	}
	return DecodeWordIDs(blob)
}

// TitleInfo describes a stored title row. Test and inspection support.
type TitleInfo struct {
	ID            int64
	Status        string
	ParentTitleID int64
	PathID        int64
}

// TitleForPath returns the title row metadata for a path.
func (s *DB) TitleForPath(ctx context.Context, pathID int64) (TitleInfo, error) {
	var (
		info   TitleInfo
		parent sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, title_status, parent_title_id, path_id FROM titles
		 WHERE path_id = ? ORDER BY id LIMIT 1`),
		pathID,
	).Scan(&info.ID, &info.Status, &parent, &info.PathID)
	if errors.Is(err, sql.ErrNoRows) {
		return TitleInfo{}, model.ErrNotFound
	}
	if err != nil {
		return TitleInfo{}, fmt.Errorf("selecting title row for path %d: %w", pathID, err)
	}
	if parent.Valid {
		info.ParentTitleID = parent.Int64
	}
	return info, nil
}

func (s *DB) titleIDForPath(ctx context.Context, pathID int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id FROM titles WHERE path_id = ? ORDER BY id LIMIT 1`),
		pathID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("selecting title id for path %d: %w", pathID, err)
	}
	return id, nil
}
