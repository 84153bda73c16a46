// Package store implements the relational persistence layer over
// database/sql. It speaks two dialects through one code path: PostgreSQL
// via the pgx stdlib driver for production, and SQLite via modernc for
// tests and zero-setup local runs.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"contentdex/internal/config"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// DB is the concrete store. It satisfies model.Store.
type DB struct {
	db      *sql.DB
	dialect dialect
	log     zerolog.Logger

	wordCache  *lru.Cache[string, int64]
	punctCache *lru.Cache[string, int64]
	batchSize  int
}

// Open connects to the configured database and sizes the connection pool
// and caches. Call Init before first use.
func Open(cfg *config.Config, logger zerolog.Logger) (*DB, error) {
	var (
		db  *sql.DB
		d   dialect
		err error
	)
	switch cfg.DB.Driver {
	case "postgres":
		db, err = sql.Open("pgx", cfg.DB.DSN())
		if err != nil {
			return nil, fmt.Errorf("opening postgres connection: %w", err)
		}
		db.SetMaxOpenConns(cfg.DB.MaxConns)
		db.SetMaxIdleConns(cfg.DB.MinConns)
		d = dialectPostgres
	case "sqlite":
		path, perr := cfg.DB.SQLitePath()
		if perr != nil {
			return nil, perr
		}
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		// modernc sqlite serializes writes; a single connection avoids
		// SQLITE_BUSY churn under the worker pools
		db.SetMaxOpenConns(1)
		d = dialectSQLite
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}

	wordCache, err := lru.New[string, int64](cfg.WordCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating word cache: %w", err)
	}
	punctCache, err := lru.New[string, int64](cfg.PunctCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating punctuation cache: %w", err)
	}

	return &DB{
		db:         db,
		dialect:    d,
		log:        logger.With().Str("component", "store").Logger(),
		wordCache:  wordCache,
		punctCache: punctCache,
		batchSize:  cfg.BatchSize,
	}, nil
}

// Close releases the connection pool.
func (s *DB) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres. SQL in this package
// is written with ? throughout.
func (s *DB) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// lowerLike normalizes a user search term for LOWER(...) LIKE matching.
func lowerLike(s string) string {
	return strings.ToLower(s)
}

// placeholders returns "?, ?, ..." with n slots.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
