// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"synchub/cli/internal/xdg"
)

const createTokensTable = `
CREATE TABLE IF NOT EXISTS tokens (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const upsertToken = `
INSERT INTO tokens (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// sqliteBackend keeps tokens in a private SQLite file.
type sqliteBackend struct {
	db *sql.DB
}

// DefaultSQLitePath returns <XDG data dir>/tokens.db.
func DefaultSQLitePath() (string, error) {
	dir, err := xdg.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tokens.db"), nil
}

// openSQLiteBackend opens (creating if needed) the token database at path.
// An empty path selects DefaultSQLitePath.
func openSQLiteBackend(path string) (*sqliteBackend, error) {
	if path == "" {
		p, err := DefaultSQLitePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create token store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(createTokensTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tokens table: %w", err)
	}
	// Tokens are secrets; keep the file owner-only.
	_ = os.Chmod(path, 0o600)

	return &sqliteBackend{db: db}, nil
}

func (s *sqliteBackend) Set(key, value string) error {
	if _, err := s.db.Exec(upsertToken, key, value); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// SetPair writes both tokens in one transaction.
func (s *sqliteBackend) SetPair(accessKey, access, refreshKey, refresh string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(upsertToken, accessKey, access); err != nil {
		return fmt.Errorf("failed to store %s: %w", accessKey, err)
	}
	if _, err := tx.Exec(upsertToken, refreshKey, refresh); err != nil {
		return fmt.Errorf("failed to store %s: %w", refreshKey, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit token transaction: %w", err)
	}
	return nil
}

func (s *sqliteBackend) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM tokens WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", key, err)
	}
	return value, nil
}

func (s *sqliteBackend) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM tokens WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *sqliteBackend) Close() error {
	return s.db.Close()
}
