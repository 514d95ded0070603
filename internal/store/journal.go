package store

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/chatplay/internal/action"
)

// journalBacklog bounds executions waiting for the writer.
const journalBacklog = 1024

// Journal records executed leaves for one session. It satisfies
// engine.Observer.
//
// Executed only enqueues; a single writer goroutine owns the inserts and
// assigns seq in arrival order, so runners never wait on the database.
// When the backlog is full the execution is dropped and counted.
// Opening a Journal on a session that already has rows continues after the
// highest seq.
//
// Thread-safety: Executed is safe for concurrent use. Close must be called
// once the engine has stopped.
type Journal struct {
	store   *Store
	session string
	logger  *slog.Logger

	seq     atomic.Int64
	dropped atomic.Int64

	mu      sync.RWMutex
	closed  bool
	pending chan Execution
	done    chan struct{}
}

// NewJournal opens a journal on an existing session and starts its writer.
func NewJournal(ctx context.Context, s *Store, sessionID string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	last, err := s.maxSeq(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	j := &Journal{
		store:   s,
		session: sessionID,
		logger:  logger.With("session", sessionID),
		pending: make(chan Execution, journalBacklog),
		done:    make(chan struct{}),
	}
	j.seq.Store(last)
	go j.write()
	return j, nil
}

// SessionID returns the journal's session.
func (j *Journal) SessionID() string { return j.session }

// Seq returns the last seq written.
func (j *Journal) Seq() int64 { return j.seq.Load() }

// Dropped returns how many executions were lost to a full backlog or a
// closed journal.
func (j *Journal) Dropped() int64 { return j.dropped.Load() }

// Executed enqueues one execution for the writer.
func (j *Journal) Executed(category string, a action.Action, at time.Time) {
	e := Execution{
		SessionID: j.session,
		Category:  category,
		Kind:      action.Kind(a),
		Action:    a.String(),
		At:        at,
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		j.dropped.Add(1)
		j.logger.Warn("journal closed, execution not recorded", "category", category, "action", e.Action)
		return
	}
	select {
	case j.pending <- e:
	default:
		j.dropped.Add(1)
		j.logger.Warn("journal backlog full, execution not recorded", "category", category, "action", e.Action)
	}
}

// Close stops accepting executions and waits until the backlog is written.
// It is safe to call more than once.
func (j *Journal) Close() {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.pending)
	}
	j.mu.Unlock()
	<-j.done
}

// write drains the backlog. Write failures are logged; the engine keeps
// running without its audit trail.
func (j *Journal) write() {
	defer close(j.done)
	for e := range j.pending {
		e.Seq = j.seq.Load() + 1
		if err := j.store.WriteExecution(context.Background(), e); err != nil {
			j.logger.Error("journal write failed", "seq", e.Seq, "category", e.Category, "error", err)
			continue
		}
		j.seq.Store(e.Seq)
	}
}
