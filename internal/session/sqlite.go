package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite via modernc.org/sqlite (pure Go).
// A single-row table holds the current token pair so that a save always
// replaces the previous pair atomically.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-backed credential store.
// dbPath is the path to the SQLite database file; use ":memory:" for testing.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}

	// Verify the connection works.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: ping database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS credentials (
			id            INTEGER PRIMARY KEY CHECK (id = 1),
			access_token  TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveCredentials persists the token pair, replacing any existing pair.
func (s *SQLiteStore) SaveCredentials(ctx context.Context, creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("session: nil credentials")
	}

	query := `
		INSERT INTO credentials (id, access_token, refresh_token, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at    = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		creds.AccessToken,
		creds.RefreshToken,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("session: save credentials: %w", err)
	}
	return nil
}

// LoadCredentials returns the stored token pair, or (nil, nil) when the
// store is empty.
func (s *SQLiteStore) LoadCredentials(ctx context.Context) (*Credentials, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token FROM credentials WHERE id = 1`)

	var creds Credentials
	if err := row.Scan(&creds.AccessToken, &creds.RefreshToken); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("session: scan row: %w", err)
	}
	return &creds, nil
}

// Clear removes the stored token pair. Clearing an empty store succeeds.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("session: clear credentials: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
