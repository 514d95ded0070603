package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] +%dms %s %s\n", ev.Seq, ev.AtMs, ev.Category, ev.Action)
	}

	return buf.String()
}

// evaluateAssertion dispatches on the assertion type.
func evaluateAssertion(trace []TraceEvent, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(trace, a)
	case AssertTraceCount:
		return assertTraceCount(trace, a)
	case AssertMinGap:
		return assertMinGap(trace, a)
	case AssertSameTick:
		return assertSameTick(trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// filterCategory returns the events in category, or all events if empty.
func filterCategory(trace []TraceEvent, category string) []TraceEvent {
	if category == "" {
		return trace
	}
	var out []TraceEvent
	for _, ev := range trace {
		if ev.Category == category {
			out = append(out, ev)
		}
	}
	return out
}

// indexFrom returns the first index >= from whose action matches, or -1.
func indexFrom(trace []TraceEvent, action string, from int) int {
	for i := from; i < len(trace); i++ {
		if trace[i].Action == action {
			return i
		}
	}
	return -1
}

func describe(category string) string {
	if category == "" {
		return "trace"
	}
	return "category " + category
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	if indexFrom(filterCategory(trace, a.Category), a.Action, 0) >= 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s in %s", a.Action, describe(a.Category)),
		Actual:   "not found",
		Trace:    trace,
	}
}

// assertTraceOrder checks that actions appear in the given order.
// Actions don't need to be consecutive (intervening actions are allowed).
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	events := filterCategory(trace, a.Category)
	pos := 0
	for _, want := range a.Actions {
		i := indexFrom(events, want, pos)
		if i < 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("%v in order in %s", a.Actions, describe(a.Category)),
				Actual:   fmt.Sprintf("%s not found after position %d", want, pos),
				Trace:    trace,
			}
		}
		pos = i + 1
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range filterCategory(trace, a.Category) {
		if ev.Action == a.Action {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s exactly %d times in %s", a.Action, a.Count, describe(a.Category)),
		Actual:   fmt.Sprintf("%d times", count),
		Trace:    trace,
	}
}

// assertMinGap checks the time between the first From and the first To
// that follows it.
func assertMinGap(trace []TraceEvent, a Assertion) error {
	events := filterCategory(trace, a.Category)
	from := indexFrom(events, a.From, 0)
	to := -1
	if from >= 0 {
		to = indexFrom(events, a.To, from+1)
	}
	if from < 0 || to < 0 {
		return &AssertionError{
			Type:     AssertMinGap,
			Expected: fmt.Sprintf("%s followed by %s", a.From, a.To),
			Actual:   "pair not found",
			Trace:    trace,
		}
	}

	gapMs := events[to].AtMs - events[from].AtMs
	if gapMs >= a.Gap.D().Milliseconds() {
		return nil
	}
	return &AssertionError{
		Type:     AssertMinGap,
		Expected: fmt.Sprintf("at least %s between %s and %s", a.Gap.D(), a.From, a.To),
		Actual:   fmt.Sprintf("%dms", gapMs),
		Trace:    trace,
	}
}

// assertSameTick checks that the first occurrences of all actions ran in
// one interpreter step.
func assertSameTick(trace []TraceEvent, a Assertion) error {
	events := filterCategory(trace, a.Category)
	var ticks []int64
	for _, want := range a.Actions {
		i := indexFrom(events, want, 0)
		if i < 0 {
			return &AssertionError{
				Type:     AssertSameTick,
				Expected: fmt.Sprintf("%v in one step", a.Actions),
				Actual:   fmt.Sprintf("%s not found", want),
				Trace:    trace,
			}
		}
		ticks = append(ticks, events[i].Tick)
	}
	for _, t := range ticks[1:] {
		if t != ticks[0] {
			return &AssertionError{
				Type:     AssertSameTick,
				Expected: fmt.Sprintf("%v in one step", a.Actions),
				Actual:   fmt.Sprintf("ticks %v", ticks),
				Trace:    trace,
			}
		}
	}
	return nil
}
