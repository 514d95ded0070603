package store

import (
	"context"
	"fmt"
	"time"
)

// Execution is one leaf action performed by a category queue.
type Execution struct {
	SessionID string    `json:"session_id"`
	Seq       int64     `json:"seq"`
	Category  string    `json:"category"`
	Kind      string    `json:"kind"`
	Action    string    `json:"action"`
	At        time.Time `json:"at"`
}

// WriteExecution appends an execution record.
// Uses ON CONFLICT DO NOTHING for idempotency - a repeated (session, seq)
// is silently ignored.
//
// Note: The session referenced by SessionID must exist (foreign key constraint).
func (s *Store) WriteExecution(ctx context.Context, e Execution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions
		(session_id, seq, category, kind, action, at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		e.SessionID,
		e.Seq,
		e.Category,
		e.Kind,
		e.Action,
		formatTime(e.At),
	)
	if err != nil {
		return fmt.Errorf("write execution: %w", err)
	}
	return nil
}
