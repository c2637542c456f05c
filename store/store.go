// Package store keeps linked table snapshots in SQLite, one row per klass
// and generation, so the history of a class across redefinitions can be
// inspected.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/chazu/ilink/vm/snapshot"
)

// ErrNotFound indicates no snapshot is stored for the requested class.
var ErrNotFound = errors.New("snapshot not found")

// Store handles SQLite storage for snapshots.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Record describes one stored generation.
type Record struct {
	Generation int
	Hash       [32]byte
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		class      TEXT    NOT NULL,
		generation INTEGER NOT NULL,
		hash       BLOB    NOT NULL,
		data       BLOB    NOT NULL,
		PRIMARY KEY (class, generation)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, dbPath: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores snap, replacing any snapshot of the same class and generation.
func (s *Store) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	data, err := snapshot.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", snap.Class, err)
	}
	hash, err := snapshot.Hash(snap)
	if err != nil {
		return fmt.Errorf("hashing %s: %w", snap.Class, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (class, generation, hash, data) VALUES (?, ?, ?, ?)`,
		snap.Class, snap.Generation, hash[:], data)
	if err != nil {
		return fmt.Errorf("saving %s generation %d: %w", snap.Class, snap.Generation, err)
	}
	return nil
}

// Latest loads the highest generation stored for class.
func (s *Store) Latest(ctx context.Context, class string) (*snapshot.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM snapshots WHERE class = ? ORDER BY generation DESC LIMIT 1`,
		class).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", class, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", class, err)
	}
	return snapshot.Unmarshal(data)
}

// History lists the stored generations of class, oldest first.
func (s *Store) History(ctx context.Context, class string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT generation, hash FROM snapshots WHERE class = ? ORDER BY generation`,
		class)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", class, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var hash []byte
		if err := rows.Scan(&rec.Generation, &hash); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", class, err)
		}
		copy(rec.Hash[:], hash)
		out = append(out, rec)
	}
	return out, rows.Err()
}
