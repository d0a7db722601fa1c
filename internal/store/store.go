// Package store implements the SQLite tile archive: schema setup, the
// per-connection pragmas each worker applies, and the insert/get
// operations the builder uses during the base and overview phases.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tilekit/mbtiler/internal/mbtiler"
)

// Store wraps one connection to the tile archive. The archive schema is
// created once by Create; every worker then opens its own Store with Open
// and applies the throughput pragmas independently (§4.5, §5).
type Store struct {
	db *sql.DB
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tiles (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB);
CREATE TABLE IF NOT EXISTS metadata (name TEXT, value TEXT);
CREATE TABLE IF NOT EXISTS grids (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, grid BLOB);
CREATE TABLE IF NOT EXISTS grid_data (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, key_name TEXT, key_json TEXT);
`

// Create makes a fresh archive file at path and initializes its schema.
// Must be called exactly once, before any worker opens a connection.
func Create(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, mbtiler.Wrap(mbtiler.ArchiveError, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, mbtiler.Wrapf(mbtiler.ArchiveError, "creating schema: %w", err)
	}
	s := &Store{db: db}
	if err := s.applyWritePragmas(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Open connects to an already-created archive (one connection per worker)
// and applies the write-throughput pragmas (§5: synchronous=OFF,
// journal_mode=OFF) plus a generous busy timeout, since multiple workers
// write to the same file concurrently.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=30000")
	if err != nil {
		return nil, mbtiler.Wrap(mbtiler.ArchiveError, err)
	}
	s := &Store{db: db}
	if err := s.applyWritePragmas(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) applyWritePragmas() error {
	pragmas := []string{
		"PRAGMA synchronous=OFF",
		"PRAGMA journal_mode=OFF",
		"PRAGMA cache_size=-2000",
		"PRAGMA page_size=65536",
		"PRAGMA foreign_keys=1",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return mbtiler.Wrapf(mbtiler.ArchiveError, "applying %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertTile writes one tile row. Duplicates are tolerated (plain INSERT)
// until Finalize builds the unique index — see §9 on why a worker-local
// existence check would defeat the point of parallel writers.
func (s *Store) InsertTile(z, x, y int, data []byte) error {
	_, err := s.db.Exec(`INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)`,
		z, x, y, data)
	if err != nil {
		return mbtiler.Wrapf(mbtiler.ArchiveError, "inserting tile z=%d x=%d y=%d: %w", z, x, y, err)
	}
	return nil
}

// GetTile reads a tile row, used by the overview phase to load children.
// Returns (nil, nil) if no such row exists.
func (s *Store) GetTile(z, x, y int) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`,
		z, x, y).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mbtiler.Wrapf(mbtiler.ArchiveError, "reading tile z=%d x=%d y=%d: %w", z, x, y, err)
	}
	return data, nil
}

// HasTile reports whether a tile row already exists, for resume mode.
func (s *Store) HasTile(z, x, y int) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT 1 FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ? LIMIT 1`,
		z, x, y).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, mbtiler.Wrapf(mbtiler.ArchiveError, "checking tile z=%d x=%d y=%d: %w", z, x, y, err)
	}
	return true, nil
}

// InsertMetadata inserts one metadata row.
func (s *Store) InsertMetadata(name, value string) error {
	_, err := s.db.Exec(`INSERT INTO metadata (name, value) VALUES (?, ?)`, name, value)
	if err != nil {
		return mbtiler.Wrapf(mbtiler.ArchiveError, "inserting metadata %q: %w", name, err)
	}
	return nil
}

// LookupMetadata reads back a single metadata value by name.
func (s *Store) LookupMetadata(name string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE name = ?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", mbtiler.Wrapf(mbtiler.ArchiveError, "reading metadata %q: %w", name, err)
	}
	return value, nil
}

// Finalize runs after all workers have joined: it restores normal
// journaling and builds the unique indexes that make the archive's
// (zoom_level, tile_column, tile_row) triple unique, and speed up
// metadata lookups. Must be called on a connection opened after every
// worker has closed its own.
func (s *Store) Finalize() error {
	stmts := []string{
		"PRAGMA journal_mode=DELETE",
		"CREATE UNIQUE INDEX IF NOT EXISTS name ON metadata (name)",
		"CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row)",
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return mbtiler.Wrapf(mbtiler.ArchiveError, "finalizing archive: %w", fmt.Errorf("%s: %w", stmt, err))
		}
	}
	return nil
}
