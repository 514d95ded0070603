package compiler

import (
	"fmt"

	"github.com/roach88/chatplay/internal/action"
)

// Validation error codes (E100-E119).
const (
	ErrAtomicNesting    = "E101" // atomic group holds a wait or a sequence
	ErrDuplicateTrigger = "E102" // two rules share source and id
	ErrStuckKey         = "W103" // key pressed and never released (lint)
)

// ValidationError represents a rule validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled rules.
// Returns all errors found (does not fail-fast).
//
// Trigger IDs are compared exactly here; the event matcher additionally
// rejects IDs that only collide after normalization.
func Validate(rules []Rule) []ValidationError {
	var errs []ValidationError
	seen := make(map[[2]string]int)

	for i, r := range rules {
		field := fmt.Sprintf("rule[%d]", i)
		line := 0
		if r.Pos.IsValid() {
			line = r.Pos.Line()
		}

		key := [2]string{r.Source, r.ID}
		if first, dup := seen[key]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("trigger %s/%s already bound by rule[%d]", r.Source, r.ID, first),
				Code:    ErrDuplicateTrigger,
				Line:    line,
			})
		} else {
			seen[key] = i
		}

		walkAtomic(r.Action, func(atomic action.AtomicSequence, child action.Action) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s cannot run inside %s", child, atomic),
				Code:    ErrAtomicNesting,
				Line:    line,
			})
		})
	}

	return errs
}

// Lint reports suspicious but runnable rules. Its findings never block a
// run; callers print or log them.
func Lint(rules []Rule) []ValidationError {
	var warns []ValidationError
	for i, r := range rules {
		line := 0
		if r.Pos.IsValid() {
			line = r.Pos.Line()
		}
		for _, code := range stuckKeys(r.Action) {
			warns = append(warns, ValidationError{
				Field:   fmt.Sprintf("rule[%d]", i),
				Message: fmt.Sprintf("key %d is pressed but never released", code),
				Code:    ErrStuckKey,
				Line:    line,
			})
		}
	}
	return warns
}

// walkAtomic calls bad for every non-leaf child of every AtomicSequence in a.
func walkAtomic(a action.Action, bad func(action.AtomicSequence, action.Action)) {
	switch t := a.(type) {
	case action.Sequence:
		for _, child := range t.Actions {
			walkAtomic(child, bad)
		}
	case action.AtomicSequence:
		for _, child := range t.Actions {
			if !action.IsLeaf(child) {
				bad(t, child)
			}
		}
	}
}

// stuckKeys returns key codes left down after all leaves of a run, in
// first-press order.
func stuckKeys(a action.Action) []action.KeyCode {
	down := make(map[action.KeyCode]bool)
	var order []action.KeyCode
	for _, leaf := range action.Leaves(a) {
		switch k := leaf.(type) {
		case action.KeyDown:
			if !down[k.Code] {
				order = append(order, k.Code)
			}
			down[k.Code] = true
		case action.KeyUp:
			down[k.Code] = false
		}
	}

	var stuck []action.KeyCode
	for _, code := range order {
		if down[code] {
			stuck = append(stuck, code)
		}
	}
	return stuck
}
