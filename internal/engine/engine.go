package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/chatplay/internal/action"
	"github.com/roach88/chatplay/internal/input"
)

// Provision returns the full set of queue names for the given custom
// categories: each normalized through action.NormalizeCategory, followed by
// the reserved default. Empty names mean uncategorized and are skipped.
func Provision(custom []string) ([]string, error) {
	seen := make(map[string]bool, len(custom)+1)
	names := make([]string, 0, len(custom)+1)

	for _, raw := range custom {
		if raw == "" {
			continue
		}
		name := action.NormalizeCategory(raw)
		if seen[name] {
			return nil, NewDuplicateCategoryError(name)
		}
		seen[name] = true
		names = append(names, name)
	}

	names = append(names, action.DefaultCategory)
	return names, nil
}

// Scheduler owns one queue per provisioned category and the router that
// feeds them.
//
// Scheduling model: Run starts a feeder and a runner goroutine per category
// plus one router goroutine. Within a category, execution order is the order
// containers were appended. Across categories there is no ordering.
//
// Shutdown: close the envelope channel. The router closes every inbound
// channel, feeders stop, runners drain their buffers and exit. Cancelling
// the context instead abandons resident buffers immediately.
type Scheduler struct {
	queues []*Queue
	byName map[string]*Queue
	router *Router
	logger *slog.Logger
}

// New provisions queues for the custom categories plus the default one.
func New(custom []string, device input.Device, opts Options) (*Scheduler, error) {
	names, err := Provision(custom)
	if err != nil {
		return nil, err
	}

	opts = opts.withDefaults()
	s := &Scheduler{
		queues: make([]*Queue, 0, len(names)),
		byName: make(map[string]*Queue, len(names)),
		logger: opts.Logger,
	}
	for _, name := range names {
		q := NewQueue(name, device, opts)
		s.queues = append(s.queues, q)
		s.byName[name] = q
	}
	s.router = NewRouter(s.queues, opts.Logger)

	return s, nil
}

// Queue returns the queue for name.
func (s *Scheduler) Queue(name string) (*Queue, bool) {
	q, ok := s.byName[name]
	return q, ok
}

// Router returns the scheduler's router.
func (s *Scheduler) Router() *Router { return s.router }

// Categories returns the provisioned names in sorted order.
func (s *Scheduler) Categories() []string {
	names := make([]string, 0, len(s.queues))
	for _, q := range s.queues {
		names = append(names, q.Name())
	}
	sort.Strings(names)
	return names
}

// Run routes envelopes into the queues and runs every queue until they have
// all stopped. Returns ctx.Err() if the context ended first.
func (s *Scheduler) Run(ctx context.Context, envelopes <-chan action.Category) error {
	s.logger.Info("scheduler starting", "categories", len(s.queues))

	var wg sync.WaitGroup
	for _, q := range s.queues {
		wg.Add(1)
		go func(q *Queue) {
			defer wg.Done()
			_ = q.Run(ctx)
		}(q)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.router.Run(ctx, envelopes)
	}()

	wg.Wait()

	if err := ctx.Err(); err != nil {
		s.logger.Info("scheduler cancelled", "error", err)
		return err
	}
	s.logger.Info("scheduler stopped")
	return nil
}
