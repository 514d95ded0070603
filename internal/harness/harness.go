package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/chatplay/internal/action"
	"github.com/roach88/chatplay/internal/compiler"
	"github.com/roach88/chatplay/internal/config"
	"github.com/roach88/chatplay/internal/engine"
	"github.com/roach88/chatplay/internal/events"
	"github.com/roach88/chatplay/internal/input"
	"github.com/roach88/chatplay/internal/testutil"
)

// traceRecorder is the engine Observer for a scenario run.
type traceRecorder struct {
	start time.Time
	tick  int64
	trace []TraceEvent
}

func (r *traceRecorder) Executed(category string, a action.Action, at time.Time) {
	r.trace = append(r.trace, TraceEvent{
		Seq:      int64(len(r.trace) + 1),
		Tick:     r.tick,
		AtMs:     at.Sub(r.start).Milliseconds(),
		Category: category,
		Kind:     action.Kind(a),
		Action:   a.String(),
	})
}

// lane is one category queue and its next scheduled tick.
type lane struct {
	queue *engine.Queue
	busy  bool
	next  time.Time
}

// Harness holds the wiring for one scenario run.
type Harness struct {
	scenario  *Scenario
	clock     *testutil.FakeClock
	device    *input.Recorder
	recorder  *traceRecorder
	matcher   *events.Matcher
	scheduler *engine.Scheduler
	lanes     map[string]*lane
	order     []string
	step      time.Duration
	paused    time.Duration
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Load and compile the mapping config
// 2. Provision queues on a fake clock and a recording device
// 3. Advance virtual time event by event and tick by tick
// 4. Evaluate assertions against the trace
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	h.simulate(result)
	result.Trace = append(result.Trace, h.recorder.trace...)

	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(result.Trace, a); err != nil {
			result.AddError(err.Error())
		}
	}

	return result, nil
}

func newHarness(s *Scenario) (*Harness, error) {
	var cfg *config.File
	var err error
	if s.ConfigFile != "" {
		cfg, err = config.Load(s.ConfigFile)
	} else {
		cfg, err = config.Parse([]byte(s.Config), s.Name+".cue")
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	rules, err := compiler.CompileMapping(cfg.Mapping.Config)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	matcher, err := events.NewMatcher(rules)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	clock := testutil.NewFakeClock()
	recorder := &traceRecorder{start: clock.Now()}
	device := input.NewRecorder()

	step := s.Tick.D()
	if step <= 0 {
		step = engine.DefaultStepInterval
	}
	paused := s.PausedTick.D()
	if paused <= 0 {
		paused = engine.DefaultPausedInterval
	}

	sched, err := engine.New(compiler.Categories(rules), device, engine.Options{
		Clock:          clock,
		Observer:       recorder,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		StepInterval:   step,
		PausedInterval: paused,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	h := &Harness{
		scenario:  s,
		clock:     clock,
		device:    device,
		recorder:  recorder,
		matcher:   matcher,
		scheduler: sched,
		lanes:     make(map[string]*lane),
		order:     sched.Categories(),
		step:      step,
		paused:    paused,
	}
	for _, name := range h.order {
		q, _ := sched.Queue(name)
		h.lanes[name] = &lane{queue: q}
	}
	return h, nil
}

// simulate advances virtual time until every lane is idle and every event
// has fired, or MaxDuration passes.
func (h *Harness) simulate(result *Result) {
	start := h.clock.Now()
	maxDuration := h.scenario.MaxDuration.D()
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	deadline := start.Add(maxDuration)
	pending := h.scenario.Events

	for {
		now := h.clock.Now()

		for len(pending) > 0 && !start.Add(pending[0].At.D()).After(now) {
			h.deliver(pending[0], now, result)
			pending = pending[1:]
		}

		h.device.SetButtonHeld(h.scenario.heldAt(now.Sub(start)))

		for _, name := range h.order {
			l := h.lanes[name]
			if !l.busy || l.next.After(now) {
				continue
			}
			h.recorder.tick++
			tick, err := l.queue.Tick()
			if err != nil {
				result.StepErrors = append(result.StepErrors, err.Error())
			}
			switch tick {
			case engine.TickStepped:
				l.next = now.Add(h.step)
			case engine.TickPaused:
				l.next = now.Add(h.paused)
			default:
				l.busy = false
			}
		}

		next, ok := h.nextInstant(start, pending)
		if !ok {
			break
		}
		if next.After(deadline) {
			result.AddError(fmt.Sprintf("scenario still running after %s", maxDuration))
			break
		}
		h.clock.Advance(next.Sub(now))
	}

	result.Elapsed = h.clock.Now().Sub(start)
}

// deliver matches one event and routes its envelope through the scheduler's
// router. The lane's inbound channel is then fed into its buffer, since the
// harness ticks queues itself instead of running their goroutines.
func (h *Harness) deliver(step EventStep, now time.Time, result *Result) {
	source := step.Source
	if source == "" {
		source = events.DefaultSource
	}

	env, ok := h.matcher.Match(events.ChatEvent{Source: source, ID: step.ID, User: step.User})
	if !ok {
		result.Unmatched = append(result.Unmatched, step.ID)
		return
	}

	if err := h.scheduler.Router().Route(context.Background(), env); err != nil {
		result.StepErrors = append(result.StepErrors, err.Error())
		return
	}

	name, _ := env.Route()
	l := h.lanes[name]
	l.queue.FeedPending()
	if !l.busy {
		l.busy = true
		l.next = now
	}
}

// nextInstant returns the earliest time anything is scheduled.
func (h *Harness) nextInstant(start time.Time, pending []EventStep) (time.Time, bool) {
	var next time.Time
	found := false
	consider := func(t time.Time) {
		if !found || t.Before(next) {
			next, found = t, true
		}
	}

	for _, name := range h.order {
		if l := h.lanes[name]; l.busy {
			consider(l.next)
		}
	}
	if len(pending) > 0 {
		consider(start.Add(pending[0].At.D()))
	}
	return next, found
}
