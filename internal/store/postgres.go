// Package store provides session persistence backends for tradebot.
//
// This file implements the PostgreSQL-backed session store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/atlasmarkets/tradebot/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions in a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL session store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open PostgreSQL connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgreSQL ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running PostgreSQL migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// GetSession retrieves the session for a user, or (nil, nil) when absent.
func (s *PostgresStore) GetSession(userID string) (*models.Session, error) {
	query := `SELECT user_id, step, flow, language, data, created_at, updated_at
			  FROM sessions WHERE user_id = $1`

	var sess models.Session
	var dataJSON sql.NullString

	err := s.db.QueryRow(query, userID).Scan(
		&sess.UserID, &sess.Step, &sess.Flow, &sess.Language,
		&dataJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetSession not found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to load session for %s: %w", userID, err)
	}

	sess.Data = make(map[string]string)
	if dataJSON.Valid && dataJSON.String != "" {
		if err := json.Unmarshal([]byte(dataJSON.String), &sess.Data); err != nil {
			slog.Error("PostgresStore GetSession data unmarshal failed", "error", err, "userID", userID)
			sess.Data = make(map[string]string)
		}
	}

	slog.Debug("PostgresStore GetSession found", "userID", userID, "step", sess.Step)
	return &sess, nil
}

// SaveSession stores or replaces the session for its user identifier.
func (s *PostgresStore) SaveSession(session models.Session) error {
	query := `
		INSERT INTO sessions (user_id, step, flow, language, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			step = EXCLUDED.step,
			flow = EXCLUDED.flow,
			language = EXCLUDED.language,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`

	var dataJSON string
	if len(session.Data) > 0 {
		jsonBytes, err := json.Marshal(session.Data)
		if err != nil {
			slog.Error("PostgresStore SaveSession data marshal failed", "error", err, "userID", session.UserID)
			return err
		}
		dataJSON = string(jsonBytes)
	}

	_, err := s.db.Exec(query, session.UserID, string(session.Step), session.Flow,
		session.Language, dataJSON, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "userID", session.UserID, "step", session.Step)
		return fmt.Errorf("failed to save session for %s: %w", session.UserID, err)
	}
	slog.Debug("PostgresStore SaveSession succeeded", "userID", session.UserID, "step", session.Step)
	return nil
}

// DeleteSession removes the session for a user.
func (s *PostgresStore) DeleteSession(userID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("PostgresStore DeleteSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete session for %s: %w", userID, err)
	}
	slog.Debug("PostgresStore DeleteSession succeeded", "userID", userID)
	return nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgreSQL database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close PostgreSQL database", "error", err)
	}
	return err
}
