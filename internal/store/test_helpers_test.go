package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/chatplay/internal/testutil"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession starts a session with a fixed ID.
func createTestSession(t *testing.T, s *Store, id string, at time.Time) Session {
	t.Helper()
	sess, err := s.StartSession(context.Background(), testutil.NewFixedSessionGenerator(id), "config.cue", at)
	if err != nil {
		t.Fatalf("StartSession() failed: %v", err)
	}
	return sess
}
