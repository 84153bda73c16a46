package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contentdex/internal/model"
)

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func clampImportance(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseStamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// GetOrCreateSource returns the source named name, creating it with the
// given attributes on first use. Attributes of an existing source are not
// modified.
func (s *DB) GetOrCreateSource(ctx context.Context, name, country, job string, importance float64) (model.Source, error) {
	if name == "" {
		return model.Source{}, fmt.Errorf("source name must not be empty")
	}
	if src, err := s.sourceByName(ctx, name); err == nil {
		return src, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return model.Source{}, err
	}

	importance = clampImportance(importance)
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO sources (name, country, job, importance, created_on)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id`),
		name, country, job, importance, nowStamp(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// lost the race; the row exists now
		return s.sourceByName(ctx, name)
	}
	if err != nil {
		return model.Source{}, fmt.Errorf("inserting source %q: %w", name, err)
	}
	return s.sourceByName(ctx, name)
}

func (s *DB) sourceByName(ctx context.Context, name string) (model.Source, error) {
	var (
		src       model.Source
		createdOn string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, country, job, importance, created_on FROM sources WHERE name = ?`),
		name,
	).Scan(&src.ID, &src.Name, &src.Country, &src.Job, &src.Importance, &createdOn)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Source{}, model.ErrNotFound
	}
	if err != nil {
		return model.Source{}, fmt.Errorf("selecting source %q: %w", name, err)
	}
	src.CreatedOn = parseStamp(createdOn)
	return src, nil
}

// ListSources returns sources ordered by name, optionally filtered by a
// case-insensitive substring search.
func (s *DB) ListSources(ctx context.Context, search string, limit int) ([]model.Source, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, name, country, job, importance, created_on FROM sources`
	args := []any{}
	if search != "" {
		query += ` WHERE LOWER(name) LIKE ?`
		args = append(args, "%"+lowerLike(search)+"%")
	}
	query += ` ORDER BY name LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var out []model.Source
	for rows.Next() {
		var (
			src       model.Source
			createdOn string
		)
		if err := rows.Scan(&src.ID, &src.Name, &src.Country, &src.Job, &src.Importance, &createdOn); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		src.CreatedOn = parseStamp(createdOn)
		out = append(out, src)
	}
	return out, rows.Err()
}

// GetOrCreateSide returns the side named name, creating it on first use.
func (s *DB) GetOrCreateSide(ctx context.Context, name string, importance float64) (model.Side, error) {
	if name == "" {
		return model.Side{}, fmt.Errorf("side name must not be empty")
	}
	if side, err := s.sideByName(ctx, name); err == nil {
		return side, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return model.Side{}, err
	}

	importance = clampImportance(importance)
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO sides (name, importance, created_on)
		 VALUES (?, ?, ?)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id`),
		name, importance, nowStamp(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return s.sideByName(ctx, name)
	}
	if err != nil {
		return model.Side{}, fmt.Errorf("inserting side %q: %w", name, err)
	}
	return s.sideByName(ctx, name)
}

func (s *DB) sideByName(ctx context.Context, name string) (model.Side, error) {
	var (
		side      model.Side
		createdOn string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, importance, created_on FROM sides WHERE name = ?`),
		name,
	).Scan(&side.ID, &side.Name, &side.Importance, &createdOn)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Side{}, model.ErrNotFound
	}
	if err != nil {
		return model.Side{}, fmt.Errorf("selecting side %q: %w", name, err)
	}
	side.CreatedOn = parseStamp(createdOn)
	return side, nil
}

// ListSides returns sides ordered by name, optionally filtered.
func (s *DB) ListSides(ctx context.Context, search string, limit int) ([]model.Side, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, name, importance, created_on FROM sides`
	args := []any{}
	if search != "" {
		query += ` WHERE LOWER(name) LIKE ?`
		args = append(args, "%"+lowerLike(search)+"%")
	}
	query += ` ORDER BY name LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing sides: %w", err)
	}
	defer rows.Close()

	var out []model.Side
	for rows.Next() {
		var (
			side      model.Side
			createdOn string
		)
		if err := rows.Scan(&side.ID, &side.Name, &side.Importance, &createdOn); err != nil {
			return nil, fmt.Errorf("scanning side: %w", err)
		}
		side.CreatedOn = parseStamp(createdOn)
		out = append(out, side)
	}
	return out, rows.Err()
}
