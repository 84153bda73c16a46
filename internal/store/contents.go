package store

import (
	"context"
	"fmt"

	"contentdex/internal/model"
)

// Chunking thresholds for the token-tuple stream. Very large documents
// switch to small chunks so a single row never carries an oversized blob.
const (
	chunkSizeDefault  = 100000
	chunkSizeLarge    = 5000
	largeStreamTuples = 1000000
)

// StoreContentChunks compresses the tuple stream into one or more content
// rows in a single transaction. A zero-length stream writes nothing.
func (s *DB) StoreContentChunks(ctx context.Context, pathID int64, tuples []model.TokenTuple) error {
	if len(tuples) == 0 {
		return nil
	}
	chunkSize := chunkSizeDefault
	if len(tuples) > largeStreamTuples {
		chunkSize = chunkSizeLarge
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting content transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO contents (content_data, content_date, path_id) VALUES (?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("preparing content insert: %w", err)
	}
	defer stmt.Close()

	stamp := nowStamp()
	for start := 0; start < len(tuples); start += chunkSize {
		end := start + chunkSize
		if end > len(tuples) {
			end = len(tuples)
		}
		blob, err := EncodeTuples(tuples[start:end])
		if err != nil {
			return fmt.Errorf("encoding content chunk: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, blob, stamp, pathID); err != nil {
			return fmt.Errorf("inserting content chunk: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing content chunks: %w", err)
	}
	return nil
}

// RetrieveContent reassembles the full tuple stream of a path from its
// chunks in insertion order.
func (s *DB) RetrieveContent(ctx context.Context, pathID int64) ([]model.TokenTuple, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT content_data FROM contents WHERE path_id = ? ORDER BY id`),
		pathID,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting content for path %d: %w", pathID, err)
	}
	defer rows.Close()

	var tuples []model.TokenTuple
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scanning content chunk: %w", err)
		}
		chunk, err := DecodeTuples(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding content chunk for path %d: %w", pathID, err)
		}
		tuples = append(tuples, chunk...)
	}
	return tuples, rows.Err()
}

// ContentStats reports chunk count and total compressed size for a path.
func (s *DB) ContentStats(ctx context.Context, pathID int64) (model.ContentStats, error) {
	var stats model.ContentStats
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(content_data)), 0) FROM contents WHERE path_id = ?`),
		pathID,
	).Scan(&stats.ChunkCount, &stats.CompressedBytes)
	if err != nil {
		return model.ContentStats{}, fmt.Errorf("collecting content stats for path %d: %w", pathID, err)
	}
	return stats, nil
}
