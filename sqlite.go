package naivedb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// SQLiteStorage is a leaf backend persisting the snapshot as a single JSON
// document inside a SQLite database, using the pure-Go driver. It follows the
// same conventions as FileStorage: an empty database means no snapshot, and a
// read-only instance refuses writes before touching the database.
type SQLiteStorage struct {
	mode Mode
	db   *sql.DB
}

// NewSQLiteStorage opens (or creates) a SQLite-backed store at path. Use
// ":memory:" for an in-memory database. ModeReadOnly requires an existing
// database: the file is not created, no pragma or schema statement runs, and
// the connection itself is opened read-only.
func NewSQLiteStorage(path string, mode Mode) (*SQLiteStorage, error) {
	switch mode {
	case ModeReadOnly, ModeReadWrite, ModeCreate, ModeTruncate:
	default:
		return nil, fmt.Errorf("failed to open sqlite %s: unknown mode %s", path, mode)
	}

	dsn := path
	if mode == ModeReadOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
		}
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}

	if mode != ModeReadOnly {
		// WAL mode for better concurrent read performance.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set WAL mode: %w", err)
		}

		schema := `
		CREATE TABLE IF NOT EXISTS snapshot (
			id  INTEGER PRIMARY KEY CHECK (id = 1),
			doc TEXT NOT NULL
		);`
		if _, err := db.Exec(schema); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLiteStorage{mode: mode, db: db}, nil
}

// Read returns the stored snapshot, or nil if none has been written.
func (s *SQLiteStorage) Read() (Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", os.ErrClosed)
	}
	// Read-only instances never create the schema, so a database no writer
	// ever touched has no snapshot table. No table means no snapshot.
	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'snapshot'").Scan(&name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	var doc string
	err = s.db.QueryRow("SELECT doc FROM snapshot WHERE id = 1").Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(doc), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Write replaces the stored snapshot.
func (s *SQLiteStorage) Write(snapshot Snapshot) error {
	if s.mode == ModeReadOnly {
		return fmt.Errorf("failed to write snapshot opened %s: %w", s.mode, ErrReadOnly)
	}
	if s.db == nil {
		return fmt.Errorf("failed to write snapshot: %w", os.ErrClosed)
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO snapshot (id, doc) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Get returns the item under key, or nil if the snapshot or the key is absent.
func (s *SQLiteStorage) Get(key string) (Item, error) {
	snapshot, err := s.Read()
	if err != nil {
		return nil, err
	}
	return snapshot[key].Clone(), nil
}

// Set updates a single key, starting a snapshot if none exists yet.
func (s *SQLiteStorage) Set(key string, item Item) error {
	if s.mode == ModeReadOnly {
		return fmt.Errorf("failed to set %q opened %s: %w", key, s.mode, ErrReadOnly)
	}
	snapshot, err := s.Read()
	if err != nil {
		return err
	}
	if snapshot == nil {
		snapshot = Snapshot{}
	}
	snapshot[key] = item.Clone()
	return s.Write(snapshot)
}

// Close shuts down the database. Calling it again is a no-op.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	return db.Close()
}
