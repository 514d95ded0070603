package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/chatplay/internal/action"
)

// Router demultiplexes routing envelopes into category queues.
//
// Thread-safety: Route is safe from any goroutine. Close waits for in-flight
// sends to finish before closing the queues' inbound channels.
type Router struct {
	mu     sync.RWMutex
	queues map[string]*Queue
	closed bool
	logger *slog.Logger
}

// NewRouter creates a router over the given queues.
// A nil logger uses slog.Default().
func NewRouter(queues []*Queue, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]*Queue, len(queues))
	for _, q := range queues {
		byName[q.Name()] = q
	}
	return &Router{queues: byName, logger: logger}
}

// Route delivers the envelope's container to its category queue.
//
// Empty envelopes, unknown categories and stopped queues are logged and
// reported as ActionErrors; the envelope is dropped and no queue is touched.
// A full inbound channel blocks until there is room, the queue stops, or ctx
// ends.
func (r *Router) Route(ctx context.Context, env action.Category) error {
	if env == nil {
		err := NewEmptyActionError("")
		r.logger.Error("dropping envelope", "error", err)
		return err
	}
	name, c := env.Route()
	if c.Action == nil {
		err := NewEmptyActionError(name)
		r.logger.Error("dropping envelope", "category", name, "error", err)
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.queues[name]
	if !ok {
		err := NewUnknownCategoryError(name)
		r.logger.Error("dropping action", "category", name, "action", c.String(), "error", err)
		return err
	}

	if r.closed {
		err := NewSendError(name, c.String())
		r.logger.Error("dropping action", "category", name, "action", c.String(), "error", err)
		return err
	}

	select {
	case q.inbound <- c:
		r.logger.Debug("routed", "category", name, "action", c.String())
		return nil
	case <-q.Done():
		err := NewSendError(name, c.String())
		r.logger.Error("dropping action", "category", name, "action", c.String(), "error", err)
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run routes envelopes until in is closed or ctx ends, then closes every
// queue's inbound channel so the feeders terminate.
func (r *Router) Run(ctx context.Context, in <-chan action.Category) error {
	defer r.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-in:
			if !ok {
				r.logger.Debug("event stream closed")
				return nil
			}
			// Errors are logged by Route; one bad envelope never stops routing.
			_ = r.Route(ctx, env)
		}
	}
}

// Close closes every queue's inbound channel. Later Route calls fail with
// SEND_FAILED. Safe to call more than once.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for _, q := range r.queues {
		q.CloseInbound()
	}
}

// Categories returns the routable category names.
func (r *Router) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.queues))
	for name := range r.queues {
		names = append(names, name)
	}
	return names
}
