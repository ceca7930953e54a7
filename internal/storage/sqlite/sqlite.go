// Package sqlite persists entry collections in a local SQLite database using
// the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
	"moodjournal/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS journal_collections (
	user_id    TEXT PRIMARY KEY,
	entries    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// Store implements ports.EntryStorage. One row holds one user's collection.
type Store struct {
	db *sql.DB
}

// Open creates the database file and schema if needed.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{"PRAGMA busy_timeout=5000", "PRAGMA journal_mode=WAL", schema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("initialize database: %w", err)
		}
	}

	log.Debug().Str("path", path).Msg("Journal database opened")
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context, userID string) ([]domain.JournalEntry, error) {
	const query = `SELECT entries FROM journal_collections WHERE user_id = ?`

	var payload string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrCollectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load entries for %s: %w", userID, err)
	}
	return storage.DecodeEntries([]byte(payload))
}

func (s *Store) Save(ctx context.Context, userID string, entries []domain.JournalEntry) error {
	const upsert = `
		INSERT INTO journal_collections (user_id, entries, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET entries = excluded.entries, updated_at = excluded.updated_at
	`

	payload, err := storage.EncodeEntries(entries)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsert, userID, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("save entries for %s: %w", userID, err)
	}
	return nil
}

// Users lists every user with a stored collection.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM journal_collections ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// setRaw writes a payload without encoding it.
func (s *Store) setRaw(ctx context.Context, userID, payload string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO journal_collections (user_id, entries, updated_at) VALUES (?, ?, ?)`,
		userID, payload, time.Now().UTC())
	return err
}
