package toolstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"toolforge/internal/logging"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps unit sources in a single SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initialize creates the database schema.
func (s *SQLiteStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tool_units (
			name TEXT PRIMARY KEY,
			code BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create tool_units table: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tool_units WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query unit %s: %w", name, err)
	}
	return true, nil
}

func (s *SQLiteStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var code []byte
	err := s.db.QueryRowContext(ctx, `SELECT code FROM tool_units WHERE name = ?`, name).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read unit %s: %w", name, err)
	}
	return code, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM tool_units ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan unit name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, name string, code []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_units (name, code) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, code)
	if err != nil {
		return fmt.Errorf("failed to create unit %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create unit %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	logging.Store("Created unit %s in %s (%d bytes)", name, s.dbPath, len(code))
	return nil
}
