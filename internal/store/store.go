// Package store provides session persistence backends for tradebot.
//
// Sessions are keyed by user identifier. SQLite is the default backend;
// PostgreSQL is selected automatically for postgres-style DSNs. An in-memory
// implementation backs tests and development runs.
package store

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/atlasmarkets/tradebot/internal/models"
)

// Store is the session persistence abstraction consumed by the dialog engine.
// GetSession returns (nil, nil) when no session exists for the user.
type Store interface {
	GetSession(userID string) (*models.Session, error)
	SaveSession(session models.Session) error
	DeleteSession(userID string) error
	Close() error
}

// Opts holds configuration options for SQL-backed stores.
type Opts struct {
	DSN string
}

// Option configures a store constructor.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for postgres-style DSNs and "sqlite"
// otherwise (file paths are treated as SQLite databases).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a map-backed Store for tests and development.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]models.Session)}
}

// GetSession returns a copy of the stored session, or nil when absent.
func (s *InMemoryStore) GetSession(userID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	out := sess.Clone()
	return &out, nil
}

// SaveSession stores a copy of the session keyed by its user identifier.
func (s *InMemoryStore) SaveSession(session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = session.Clone()
	slog.Debug("InMemoryStore SaveSession succeeded", "userID", session.UserID, "step", session.Step)
	return nil
}

// DeleteSession removes the session for the user, if any.
func (s *InMemoryStore) DeleteSession(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	slog.Debug("InMemoryStore DeleteSession succeeded", "userID", userID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
