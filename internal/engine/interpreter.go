package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/chatplay/internal/action"
	"github.com/roach88/chatplay/internal/input"
)

// Observer is told about every leaf the interpreter executes.
// Implemented by store.Journal (production) and the harness trace (tests).
//
// Executed is called synchronously from the runner while the category's
// buffer lock is held; implementations must not call back into the queue.
type Observer interface {
	Executed(category string, a action.Action, at time.Time)
}

// Interpreter advances one category's resident buffer one step at a time.
//
// A step pops the head container and interprets it:
//   - Sequence: the first child is unrolled in front of the remaining
//     Sequence and interpreted immediately, within the same step.
//   - AtomicSequence: every leaf child executes now, in order. Non-leaf
//     children are skipped with a wrong-nesting error.
//   - WaitFor: rewritten into WaitUntil(now + duration) at the head.
//   - WaitUntil: put back at the head until its deadline passes, then dropped.
//   - Leaves: executed on the device.
//
// The pause condition of a container is inherited by everything unrolled
// from it.
//
// Thread-safety: Step must not be called concurrently on the same buffer.
// Queue serializes it under the buffer lock.
type Interpreter struct {
	category string
	device   input.Device
	clock    Clock
	observer Observer
	logger   *slog.Logger
}

// NewInterpreter creates an interpreter for one category.
// Zero-valued fields of opts fall back to their defaults.
func NewInterpreter(category string, device input.Device, opts Options) *Interpreter {
	opts = opts.withDefaults()
	return &Interpreter{
		category: category,
		device:   device,
		clock:    opts.Clock,
		observer: opts.Observer,
		logger:   opts.Logger.With("category", category),
	}
}

// Step interprets the head of buf. It is a no-op on an empty buffer.
//
// Returned errors are structural (see ActionError); the offending action has
// already been skipped and the buffer is consistent. Callers log and continue.
func (in *Interpreter) Step(buf *[]action.Container) error {
	if len(*buf) == 0 {
		return nil
	}
	return in.interpret(buf, popFront(buf))
}

func (in *Interpreter) interpret(buf *[]action.Container, head action.Container) error {
	switch a := head.Action.(type) {
	case action.Sequence:
		if len(a.Actions) == 0 {
			return nil
		}
		if len(a.Actions) > 1 {
			pushFront(buf, action.Container{
				Action: action.Sequence{Actions: a.Actions[1:]},
				Pause:  head.Pause,
			})
		}
		return in.interpret(buf, action.Container{Action: a.Actions[0], Pause: head.Pause})

	case action.AtomicSequence:
		var errs []error
		for _, child := range a.Actions {
			if !action.IsLeaf(child) {
				errs = append(errs, NewNestingError(in.category, describe(child)))
				continue
			}
			if err := in.execute(child); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)

	case action.WaitFor:
		deadline := in.clock.Now().Add(a.Duration)
		pushFront(buf, action.Container{Action: action.WaitUntil{Deadline: deadline}, Pause: head.Pause})
		in.logger.Debug("wait scheduled", "duration", a.Duration, "deadline", deadline)
		return nil

	case action.WaitUntil:
		if in.clock.Now().Before(a.Deadline) {
			pushFront(buf, head)
			return nil
		}
		in.logger.Debug("wait elapsed", "deadline", a.Deadline)
		return nil

	default:
		return in.execute(head.Action)
	}
}

// execute performs a leaf on the device and reports it to the observer.
func (in *Interpreter) execute(a action.Action) error {
	if !input.Perform(in.device, a) {
		return NewUnexecutableError(in.category, describe(a))
	}

	in.logger.Debug("executed", "action", a.String())
	if in.observer != nil {
		in.observer.Executed(in.category, a, in.clock.Now())
	}
	return nil
}

// popFront removes and returns the head of buf.
func popFront(buf *[]action.Container) action.Container {
	items := *buf
	head := items[0]

	// Clear the slot so the backing array does not retain the action tree.
	items[0] = action.Container{}

	if len(items) == 1 {
		*buf = items[:0]
	} else {
		*buf = items[1:]
	}
	return head
}

// pushFront inserts c at the head of buf.
func pushFront(buf *[]action.Container, c action.Container) {
	*buf = slices.Insert(*buf, 0, c)
}

// describe labels a rejected action with its kind, so a one-element sequence
// such as (kd1) never reads like a leaf in logs.
func describe(a action.Action) string {
	if _, nested := a.(action.Sequence); nested {
		return fmt.Sprintf("%s (%s)", action.Kind(a), a)
	}
	return fmt.Sprintf("%s %s", action.Kind(a), a)
}
