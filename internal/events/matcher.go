package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/chatplay/internal/action"
	"github.com/roach88/chatplay/internal/compiler"
)

// Normalize canonicalizes a trigger ID for matching: surrounding and
// repeated whitespace collapsed, NFC, case folded.
func Normalize(id string) string {
	collapsed := strings.Join(strings.Fields(id), " ")
	return cases.Fold().String(norm.NFC.String(collapsed))
}

type triggerKey struct {
	source string
	id     string
}

// Matcher finds the rule bound to a chat event.
//
// Thread-safety: a Matcher is immutable after NewMatcher and safe for
// concurrent use.
type Matcher struct {
	rules map[triggerKey]compiler.Rule
}

// NewMatcher indexes rules by source and normalized ID. Two rules whose IDs
// normalize to the same key are rejected.
func NewMatcher(rules []compiler.Rule) (*Matcher, error) {
	m := &Matcher{rules: make(map[triggerKey]compiler.Rule, len(rules))}
	for _, r := range rules {
		key := triggerKey{source: r.Source, id: Normalize(r.ID)}
		if prev, dup := m.rules[key]; dup {
			verr := &compiler.ValidationError{
				Field:   "id",
				Message: fmt.Sprintf("%q and %q match the same %s events", prev.ID, r.ID, r.Source),
				Code:    compiler.ErrDuplicateTrigger,
			}
			if r.Pos.IsValid() {
				verr.Line = r.Pos.Line()
			}
			return nil, verr
		}
		m.rules[key] = r
	}
	return m, nil
}

// Len returns the number of indexed rules.
func (m *Matcher) Len() int { return len(m.rules) }

// Match returns a fresh envelope for the rule bound to ev, if any.
func (m *Matcher) Match(ev ChatEvent) (action.Category, bool) {
	r, ok := m.rules[triggerKey{source: ev.Source, id: Normalize(ev.ID)}]
	if !ok {
		return nil, false
	}
	return r.Envelope(), true
}

// Translate matches every event from in and forwards envelopes for the
// matches. The output is closed when in closes or ctx ends.
func Translate(ctx context.Context, in <-chan ChatEvent, m *Matcher, logger *slog.Logger) <-chan action.Category {
	if logger == nil {
		logger = slog.Default()
	}

	out := make(chan action.Category)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				env, matched := m.Match(ev)
				if !matched {
					logger.Debug("event ignored", "source", ev.Source, "id", ev.ID, "user", ev.User)
					continue
				}
				name, c := env.Route()
				logger.Info("event matched", "source", ev.Source, "id", ev.ID, "user", ev.User, "category", name, "action", c.String())
				select {
				case out <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
