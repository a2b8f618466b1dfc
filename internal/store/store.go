// Package store keeps a registry of tilesets and the resolution warnings
// reported against them, on SQLite or PostgreSQL.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lawnchairsociety/wangtile/internal/logger"
)

var ErrNotFound = errors.New("store: not found")

// Store wraps the connection pool and the dialect it speaks.
type Store struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open connects to the database described by cfg and runs migrations.
func Open(cfg Config) (*Store, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	switch dialect.(type) {
	case *PostgresDialect:
		dsn = cfg.Postgres.DSN()
	default:
		if cfg.SQLitePath == "" {
			return nil, errors.New("store: sqlite path is empty")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.SQLitePath
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, ok := dialect.(*PostgresDialect); ok {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	} else {
		// PRAGMAs are per connection; one connection keeps them in force.
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init statement %q failed: %w", stmt, err)
		}
	}

	s := &Store{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Store opened", "driver", dialect.DriverName())
	return s, nil
}

// OpenSQLite is Open with DefaultConfig(path).
func OpenSQLite(path string) (*Store, error) {
	return Open(DefaultConfig(path))
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect in use.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) migrate() error {
	pk := s.dialect.SerialPrimaryKey()
	float := s.dialect.FloatType()

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tilesets (
			id ` + pk + `,
			name TEXT NOT NULL,
			fingerprint TEXT UNIQUE NOT NULL,
			default_class INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS tileset_classes (
			tileset_id BIGINT NOT NULL REFERENCES tilesets(id) ON DELETE CASCADE,
			code INTEGER NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (tileset_id, code)
		)`,

		`CREATE TABLE IF NOT EXISTS tile_patterns (
			tileset_id BIGINT NOT NULL REFERENCES tilesets(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			tile_id INTEGER NOT NULL,
			weight ` + float + ` NOT NULL,
			top_left INTEGER NOT NULL,
			top_right INTEGER NOT NULL,
			bottom_right INTEGER NOT NULL,
			bottom_left INTEGER NOT NULL,
			PRIMARY KEY (tileset_id, tile_id)
		)`,

		`CREATE TABLE IF NOT EXISTS resolution_warnings (
			id ` + pk + `,
			tileset_id BIGINT NOT NULL REFERENCES tilesets(id) ON DELETE CASCADE,
			cell_x INTEGER NOT NULL,
			cell_y INTEGER NOT NULL,
			signature TEXT NOT NULL,
			matched TEXT NOT NULL DEFAULT '',
			distance INTEGER NOT NULL,
			tile_id INTEGER NOT NULL,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_tilesets_name ON tilesets(name)`,
		`CREATE INDEX IF NOT EXISTS idx_resolution_warnings_tileset_id ON resolution_warnings(tileset_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// insert runs an INSERT and returns the new row id, using RETURNING where
// the dialect needs it.
func (s *Store) insert(x execer, query string, args ...any) (int64, error) {
	if s.dialect.SupportsLastInsertID() {
		res, err := x.Exec(s.qb.Build(query), args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}

	var id int64
	if err := x.QueryRow(s.qb.BuildWithReturning(query, "id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
