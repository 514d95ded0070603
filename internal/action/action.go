package action

import (
	"fmt"
	"strings"
	"time"
)

// Action is a sealed interface over the fixed set of input actions.
// Only the types in this file implement it.
type Action interface {
	action() // Sealed - only these types implement it
	fmt.Stringer
}

// KeyCode is a raw virtual-key code as understood by the input device.
type KeyCode uint16

// KeyDown presses a key. Leaf.
type KeyDown struct {
	Code KeyCode
}

// KeyUp releases a key. Leaf.
type KeyUp struct {
	Code KeyCode
}

// MoveMouseRelative moves the pointer by (DX, DY). Leaf.
type MoveMouseRelative struct {
	DX int
	DY int
}

// WaitFor delays the rest of its queue. It never executes; the interpreter
// rewrites it into a WaitUntil the first time it reaches the queue head.
type WaitFor struct {
	Duration time.Duration
}

// WaitUntil is a deadline gate. It is consumed, without side effect, once
// Deadline has passed.
type WaitUntil struct {
	Deadline time.Time
}

// Sequence runs its children left to right, one per interpreter step.
type Sequence struct {
	Actions []Action
}

// AtomicSequence runs all of its children within a single interpreter step.
// Children must be leaves.
type AtomicSequence struct {
	Actions []Action
}

func (KeyDown) action()           {}
func (KeyUp) action()             {}
func (MoveMouseRelative) action() {}
func (WaitFor) action()           {}
func (WaitUntil) action()         {}
func (Sequence) action()          {}
func (AtomicSequence) action()    {}

// String returns the grammar token for the key press ("kd38").
func (a KeyDown) String() string { return fmt.Sprintf("kd%d", a.Code) }

// String returns the grammar token for the key release ("ku38").
func (a KeyUp) String() string { return fmt.Sprintf("ku%d", a.Code) }

// String returns the grammar token for the move ("mr10x-4").
func (a MoveMouseRelative) String() string { return fmt.Sprintf("mr%dx%d", a.DX, a.DY) }

// String returns the grammar token for the wait in milliseconds ("w1000").
func (a WaitFor) String() string { return fmt.Sprintf("w%d", a.Duration.Milliseconds()) }

// String has no grammar counterpart; deadlines only exist at runtime.
func (a WaitUntil) String() string {
	return fmt.Sprintf("until(%s)", a.Deadline.UTC().Format("15:04:05.000"))
}

// String joins children with spaces. Nested sequences are parenthesized so
// the unrolling structure stays visible in logs.
func (a Sequence) String() string {
	parts := make([]string, len(a.Actions))
	for i, child := range a.Actions {
		if _, nested := child.(Sequence); nested {
			parts[i] = "(" + child.String() + ")"
			continue
		}
		parts[i] = child.String()
	}
	return strings.Join(parts, " ")
}

// String renders the atomic group as "~kd17~kd70~ku17~".
func (a AtomicSequence) String() string {
	var b strings.Builder
	b.WriteByte('~')
	for _, child := range a.Actions {
		if _, nested := child.(Sequence); nested {
			b.WriteString("(" + child.String() + ")")
		} else {
			b.WriteString(child.String())
		}
		b.WriteByte('~')
	}
	return b.String()
}

// Kind names an action's variant. Used as a stable label in logs and the journal.
func Kind(a Action) string {
	switch a.(type) {
	case KeyDown:
		return "key_down"
	case KeyUp:
		return "key_up"
	case MoveMouseRelative:
		return "move_mouse_relative"
	case WaitFor:
		return "wait_for"
	case WaitUntil:
		return "wait_until"
	case Sequence:
		return "sequence"
	case AtomicSequence:
		return "atomic_sequence"
	default:
		return "unknown"
	}
}

// IsLeaf reports whether a produces an immediate side effect on the device.
func IsLeaf(a Action) bool {
	switch a.(type) {
	case KeyDown, KeyUp, MoveMouseRelative:
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of a. Leaves are plain values; compound actions
// get fresh child slices so later rewrites never alias the source tree.
func Clone(a Action) Action {
	switch v := a.(type) {
	case Sequence:
		return Sequence{Actions: cloneAll(v.Actions)}
	case AtomicSequence:
		return AtomicSequence{Actions: cloneAll(v.Actions)}
	default:
		return a
	}
}

func cloneAll(actions []Action) []Action {
	if actions == nil {
		return nil
	}
	out := make([]Action, len(actions))
	for i, child := range actions {
		out[i] = Clone(child)
	}
	return out
}

// Leaves returns the leaf actions of a in execution order, descending into
// both sequence kinds. Waits are skipped.
func Leaves(a Action) []Action {
	var out []Action
	var walk func(Action)
	walk = func(a Action) {
		switch v := a.(type) {
		case Sequence:
			for _, child := range v.Actions {
				walk(child)
			}
		case AtomicSequence:
			for _, child := range v.Actions {
				walk(child)
			}
		default:
			if IsLeaf(v) {
				out = append(out, v)
			}
		}
	}
	walk(a)
	return out
}
