package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps snapshots in a single-file SQLite database. It
// serves the same Store contract as FileStore for setups that prefer
// one database over a directory of JSON files.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultSQLitePath returns the database location under the state dir.
func DefaultSQLitePath() string {
	dir := stateDir()
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "tome.db")
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		snapshot BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("state: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load(id string) (*Snapshot, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT snapshot FROM books WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("state: decode %s: %w", id, err)
	}
	return &snap, nil
}

func (s *SQLiteStore) Save(id string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO books (id, snapshot) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot`, id, data)
	return err
}

func (s *SQLiteStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM books WHERE id = ?`, id)
	return err
}
