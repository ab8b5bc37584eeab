// Package store provides session persistence backends for tradebot.
//
// This file implements the SQLite-backed session store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/atlasmarkets/tradebot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists sessions in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite session store with the given DSN.
// The DSN is a file path to the SQLite database file; the parent directory
// is created if it does not exist.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// GetSession retrieves the session for a user, or (nil, nil) when absent.
func (s *SQLiteStore) GetSession(userID string) (*models.Session, error) {
	query := `SELECT user_id, step, flow, language, data, created_at, updated_at
			  FROM sessions WHERE user_id = ?`

	var sess models.Session
	var dataJSON sql.NullString

	err := s.db.QueryRow(query, userID).Scan(
		&sess.UserID, &sess.Step, &sess.Flow, &sess.Language,
		&dataJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetSession not found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to load session for %s: %w", userID, err)
	}

	sess.Data = make(map[string]string)
	if dataJSON.Valid && dataJSON.String != "" {
		if err := json.Unmarshal([]byte(dataJSON.String), &sess.Data); err != nil {
			slog.Error("SQLiteStore GetSession data unmarshal failed", "error", err, "userID", userID)
			// Continue with an empty bag rather than failing the turn.
			sess.Data = make(map[string]string)
		}
	}

	slog.Debug("SQLiteStore GetSession found", "userID", userID, "step", sess.Step)
	return &sess, nil
}

// SaveSession stores or replaces the session for its user identifier.
func (s *SQLiteStore) SaveSession(session models.Session) error {
	query := `
		INSERT OR REPLACE INTO sessions (user_id, step, flow, language, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	var dataJSON string
	if len(session.Data) > 0 {
		jsonBytes, err := json.Marshal(session.Data)
		if err != nil {
			slog.Error("SQLiteStore SaveSession data marshal failed", "error", err, "userID", session.UserID)
			return err
		}
		dataJSON = string(jsonBytes)
	}

	_, err := s.db.Exec(query, session.UserID, string(session.Step), session.Flow,
		session.Language, dataJSON, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "userID", session.UserID, "step", session.Step)
		return fmt.Errorf("failed to save session for %s: %w", session.UserID, err)
	}
	slog.Debug("SQLiteStore SaveSession succeeded", "userID", session.UserID, "step", session.Step)
	return nil
}

// DeleteSession removes the session for a user.
func (s *SQLiteStore) DeleteSession(userID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		slog.Error("SQLiteStore DeleteSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete session for %s: %w", userID, err)
	}
	slog.Debug("SQLiteStore DeleteSession succeeded", "userID", userID)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
