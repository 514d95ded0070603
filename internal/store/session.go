package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces session IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Session is one run of the scheduler.
type Session struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	ConfigPath string     `json:"config_path"`
}

// StartSession records a new session and returns it.
func (s *Store) StartSession(ctx context.Context, gen IDGenerator, configPath string, at time.Time) (Session, error) {
	sess := Session{
		ID:         gen.Generate(),
		StartedAt:  at.UTC(),
		ConfigPath: configPath,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, config_path)
		VALUES (?, ?, ?)
	`, sess.ID, formatTime(sess.StartedAt), sess.ConfigPath)
	if err != nil {
		return Session{}, fmt.Errorf("start session: %w", err)
	}

	return sess, nil
}

// EndSession stamps the session's end time. Ending twice keeps the first
// stamp.
func (s *Store) EndSession(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ?
		WHERE id = ? AND ended_at IS NULL
	`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetSession(ctx, id); err != nil {
			return fmt.Errorf("end session: %w", err)
		}
	}
	return nil
}
