package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/roach88/chatplay/internal/action"
	"github.com/roach88/chatplay/internal/config"
)

// Rule is a compiled mapping entry: the trigger, the action tree to run,
// and where to run it.
type Rule struct {
	Source string
	ID     string

	// Category is the queue name, already normalized. Empty means the
	// rule is uncategorized.
	Category string
	Pause    action.PauseCondition
	Action   action.Action

	Pos token.Pos
}

// Envelope builds a fresh routing envelope for one firing of the rule.
// The container holds a deep copy of the action tree.
func (r Rule) Envelope() action.Category {
	c := action.NewContainer(r.Action, r.Pause)
	if r.Category == "" {
		return action.Uncategorized{Container: c}
	}
	return action.WithCategory{Name: r.Category, Container: c}
}

// CompileMapping turns config entries into rules.
//
// An entry with one expression compiles to that expression's tree; several
// expressions are wrapped in a Sequence, in order. Every entry is compiled
// and validated; all problems are returned joined.
func CompileMapping(entries []config.Entry) ([]Rule, error) {
	rules := make([]Rule, 0, len(entries))
	var errs []error

	for i, e := range entries {
		rule, err := compileEntry(i, e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, rule)
	}

	for _, verr := range Validate(rules) {
		errs = append(errs, verr)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rules, nil
}

func compileEntry(i int, e config.Entry) (Rule, error) {
	field := fmt.Sprintf("mapping.config[%d]", i)

	if e.Source == "" || e.ID == "" {
		return Rule{}, &CompileError{
			Code: ErrMissingTrigger, Field: field, Pos: e.Pos, Offset: -1,
			Message: "source and id are required",
		}
	}
	if len(e.Actions) == 0 {
		return Rule{}, &CompileError{
			Code: ErrNoActions, Field: field + ".actions", Pos: e.Pos, Offset: -1,
			Message: "at least one action is required",
		}
	}

	pause, err := action.ParsePauseCondition(e.Pause)
	if err != nil {
		return Rule{}, &CompileError{
			Code: ErrInvalidPause, Field: field + ".pause", Pos: e.Pos, Offset: -1,
			Message: err.Error(),
		}
	}

	trees := make([]action.Action, 0, len(e.Actions))
	for j, src := range e.Actions {
		tree, err := ParseExpr(src)
		if err != nil {
			var ce *CompileError
			if errors.As(err, &ce) {
				ce.Field = fmt.Sprintf("%s.actions[%d]", field, j)
				ce.Pos = e.Pos
			}
			return Rule{}, err
		}
		trees = append(trees, tree)
	}

	rule := Rule{
		Source: e.Source,
		ID:     e.ID,
		Pause:  pause,
		Pos:    e.Pos,
	}
	if e.Category != "" {
		rule.Category = action.NormalizeCategory(e.Category)
	}
	if len(trees) == 1 {
		rule.Action = trees[0]
	} else {
		rule.Action = action.Sequence{Actions: trees}
	}
	return rule, nil
}

// Categories returns the distinct custom categories used by rules, in
// first-use order. Uncategorized rules contribute nothing.
func Categories(rules []Rule) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range rules {
		if r.Category == "" || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		names = append(names, r.Category)
	}
	return names
}
