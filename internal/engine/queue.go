package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/chatplay/internal/action"
	"github.com/roach88/chatplay/internal/input"
)

// TickResult says what a single runner iteration did.
type TickResult int

const (
	// TickIdle means the buffer was empty.
	TickIdle TickResult = iota + 1
	// TickPaused means the head's pause condition held; nothing was consumed.
	TickPaused
	// TickStepped means the interpreter advanced the buffer by one step.
	TickStepped
)

// String returns a log label for the result.
func (r TickResult) String() string {
	switch r {
	case TickIdle:
		return "idle"
	case TickPaused:
		return "paused"
	case TickStepped:
		return "stepped"
	default:
		return "unknown"
	}
}

// Queue is one named, independently paced category of actions.
//
// Two goroutines cooperate on its buffer:
//   - the feeder moves containers from the inbound channel to the buffer tail
//   - the runner ticks: check the pause condition, then step the interpreter
//
// Thread-safety model:
//   - Inbound(): sends are safe from any goroutine until the router closes it
//   - Tick(): safe from any goroutine, serialized by the buffer lock
//   - Run(): must be called exactly once
type Queue struct {
	name    string
	inbound chan action.Container
	buffer  *Buffer
	interp  *Interpreter
	device  input.Device
	clock   Clock
	logger  *slog.Logger

	stepInterval   time.Duration
	pausedInterval time.Duration

	closeOnce sync.Once
	done      chan struct{} // Closed when Run returns
}

// NewQueue creates a queue for the named category.
func NewQueue(name string, device input.Device, opts Options) *Queue {
	opts = opts.withDefaults()
	return &Queue{
		name:           name,
		inbound:        make(chan action.Container, opts.InboundCapacity),
		buffer:         newBuffer(),
		interp:         NewInterpreter(name, device, opts),
		device:         device,
		clock:          opts.Clock,
		logger:         opts.Logger.With("category", name),
		stepInterval:   opts.StepInterval,
		pausedInterval: opts.PausedInterval,
		done:           make(chan struct{}),
	}
}

// Name returns the category name.
func (q *Queue) Name() string { return q.name }

// Inbound returns the channel the router delivers into.
func (q *Queue) Inbound() chan<- action.Container { return q.inbound }

// Buffer exposes the resident buffer for inspection.
func (q *Queue) Buffer() *Buffer { return q.buffer }

// Done is closed once Run has returned.
func (q *Queue) Done() <-chan struct{} { return q.done }

// FeedPending moves the containers already waiting on the inbound channel
// into the buffer without blocking and returns how many moved. It stands in
// for the feeder goroutine when the caller drives Tick itself.
func (q *Queue) FeedPending() int {
	moved := 0
	for {
		select {
		case c, ok := <-q.inbound:
			if !ok {
				return moved
			}
			q.accept(c)
			moved++
		default:
			return moved
		}
	}
}

func (q *Queue) accept(c action.Container) {
	q.logger.Debug("feed action", "action", c.String())
	q.buffer.Append(c)
}

// CloseInbound closes the inbound channel. Safe to call more than once.
func (q *Queue) CloseInbound() {
	q.closeOnce.Do(func() { close(q.inbound) })
}

// canHandle reports whether head may be processed now.
func canHandle(head action.Container, device input.Device) bool {
	return head.Pause != action.PauseWhileButtonHeld || !device.IsButtonHeld()
}

// Tick performs one runner iteration without sleeping: the pause check,
// then at most one interpreter step. A paused head is never mutated.
func (q *Queue) Tick() (TickResult, error) {
	result := TickIdle
	var err error

	q.buffer.with(func(items *[]action.Container) {
		if len(*items) == 0 {
			return
		}
		if !canHandle((*items)[0], q.device) {
			result = TickPaused
			return
		}
		result = TickStepped
		err = q.interp.Step(items)
	})

	return result, err
}

// Run drives the feeder and the runner until the context is cancelled or
// the inbound channel is closed and the buffer has drained.
//
// On cancellation the resident buffer is abandoned.
func (q *Queue) Run(ctx context.Context) error {
	defer close(q.done)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		q.feed(ctx)
	}()

	err := q.run(ctx)
	wg.Wait()

	q.logger.Debug("queue stopped", "abandoned", q.buffer.Len())
	return err
}

// feed moves inbound containers into the buffer.
func (q *Queue) feed(ctx context.Context) {
	defer q.buffer.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-q.inbound:
			if !ok {
				q.logger.Debug("inbound closed")
				return
			}
			q.accept(c)
		}
	}
}

// run is the runner loop.
func (q *Queue) run(ctx context.Context) error {
	for {
		result, err := q.Tick()
		if err != nil {
			q.logger.Error("step failed", "error", err)
		}

		var pause time.Duration
		switch result {
		case TickIdle:
			if q.buffer.Drained() {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.buffer.Wait():
			}
			continue
		case TickPaused:
			pause = q.pausedInterval
		default:
			pause = q.stepInterval
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.clock.After(pause):
		}
	}
}
