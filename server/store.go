package server

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MabaKalox/animation-lang/pkg/bytecode"
)

// ErrProgramNotFound indicates the named program is not in the store.
var ErrProgramNotFound = errors.New("program not found")

// Store is the persisted program library, backed by SQLite.
type Store struct {
	db *sql.DB
}

// StoreEntry describes one saved program.
type StoreEntry struct {
	Name      string    `json:"name"`
	Digest    string    `json:"digest"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// OpenStore opens (creating if needed) the program library at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening program store: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		name TEXT PRIMARY KEY,
		code BLOB NOT NULL,
		digest BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating programs table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a program under the given name.
func (s *Store) Save(name string, prog bytecode.Program) error {
	digest := prog.Digest()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO programs (name, code, digest, created_at) VALUES (?, ?, ?, ?)`,
		name, prog.Bytes(), digest[:], time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving program %q: %w", name, err)
	}
	return nil
}

// Load fetches a program by name.
func (s *Store) Load(name string) (bytecode.Program, error) {
	var code []byte
	err := s.db.QueryRow(`SELECT code FROM programs WHERE name = ?`, name).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return bytecode.Program{}, fmt.Errorf("%w: %q", ErrProgramNotFound, name)
	}
	if err != nil {
		return bytecode.Program{}, fmt.Errorf("loading program %q: %w", name, err)
	}
	return bytecode.FromBytes(code), nil
}

// Delete removes a program by name.
func (s *Store) Delete(name string) error {
	res, err := s.db.Exec(`DELETE FROM programs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting program %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrProgramNotFound, name)
	}
	return nil
}

// List returns all saved programs, most recent first.
func (s *Store) List() ([]StoreEntry, error) {
	rows, err := s.db.Query(
		`SELECT name, digest, length(code), created_at FROM programs ORDER BY created_at DESC, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	defer rows.Close()

	var entries []StoreEntry
	for rows.Next() {
		var e StoreEntry
		var digest []byte
		var created int64
		if err := rows.Scan(&e.Name, &digest, &e.Size, &created); err != nil {
			return nil, fmt.Errorf("listing programs: %w", err)
		}
		e.Digest = hex.EncodeToString(digest)
		e.CreatedAt = time.Unix(created, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
