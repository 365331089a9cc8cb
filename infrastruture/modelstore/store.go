// Package modelstore persists trained value tables. Snapshots live as
// gob files on disk; a SQLite manifest indexes them by grid shape,
// training level and writer so lookups never parse filenames.
package modelstore

import (
	"context"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adaptivemaze/amaze-api/agent"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no snapshot exists for the requested
// grid shape.
var ErrNotFound = errors.New("no value table for shape")

const schema = `
CREATE TABLE IF NOT EXISTS value_tables (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	level      INTEGER NOT NULL,
	worker     TEXT    NOT NULL,
	path       TEXT    NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_value_tables_shape ON value_tables (width, height, level);
`

// Store is a disk-backed value table store with a SQLite manifest.
type Store struct {
	dir string
	db  *sql.DB
}

// New opens (or creates) a store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating model dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "manifest.db"))
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating manifest schema: %w", err)
	}

	return &Store{dir: dir, db: db}, nil
}

// Close closes the manifest database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes the snapshot to its own gob file and records it in the
// manifest. The worker tag plus the nanosecond stamp keep concurrent
// writers from ever colliding on a filename.
func (s *Store) Save(ctx context.Context, worker string, snap agent.Snapshot) error {
	name := fmt.Sprintf("qtable_%dx%d_lvl%d_%s_%d.gob",
		snap.Width, snap.Height, snap.Level, worker, time.Now().UnixNano())
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing snapshot file: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO value_tables (width, height, level, worker, path, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Width, snap.Height, snap.Level, worker, path, time.Now().UTC())
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("recording snapshot: %w", err)
	}
	return nil
}

// Load returns the most advanced snapshot for the shape across all
// workers: highest level first, newest as the tie-break.
func (s *Store) Load(ctx context.Context, width, height int) (agent.Snapshot, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		`SELECT path FROM value_tables WHERE width = ? AND height = ? ORDER BY level DESC, created_at DESC LIMIT 1`,
		width, height).Scan(&path)
	if err == sql.ErrNoRows {
		return agent.Snapshot{}, fmt.Errorf("%w: %dx%d", ErrNotFound, width, height)
	}
	if err != nil {
		return agent.Snapshot{}, fmt.Errorf("querying manifest: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return agent.Snapshot{}, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	var snap agent.Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return agent.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}

// Count returns how many snapshots the manifest records for the shape.
func (s *Store) Count(ctx context.Context, width, height int) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM value_tables WHERE width = ? AND height = ?`,
		width, height).Scan(&n)
	return n, err
}
