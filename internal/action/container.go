package action

import "fmt"

// PauseCondition decides whether a queue head may be processed.
type PauseCondition int

const (
	// PauseNone never pauses.
	PauseNone PauseCondition = iota
	// PauseWhileButtonHeld pauses while the device reports the designated
	// pointer button as held.
	PauseWhileButtonHeld
)

// String returns the configuration spelling of the condition.
func (p PauseCondition) String() string {
	switch p {
	case PauseNone:
		return "none"
	case PauseWhileButtonHeld:
		return "button_held"
	default:
		return fmt.Sprintf("PauseCondition(%d)", int(p))
	}
}

// ParsePauseCondition is the inverse of PauseCondition.String.
// The empty string maps to PauseNone.
func ParsePauseCondition(s string) (PauseCondition, error) {
	switch s {
	case "", "none":
		return PauseNone, nil
	case "button_held":
		return PauseWhileButtonHeld, nil
	default:
		return PauseNone, fmt.Errorf("unknown pause condition %q: must be one of none, button_held", s)
	}
}

// Container is an action plus its pause policy, as stored in a category
// queue. Containers unrolled from it inherit Pause.
type Container struct {
	Action Action
	Pause  PauseCondition
}

// NewContainer wraps a clone of a.
func NewContainer(a Action, pause PauseCondition) Container {
	return Container{Action: Clone(a), Pause: pause}
}

// String renders the container for logs.
func (c Container) String() string {
	if c.Action == nil {
		return "<empty>"
	}
	if c.Pause == PauseNone {
		return c.Action.String()
	}
	return fmt.Sprintf("%s [pause=%s]", c.Action, c.Pause)
}
