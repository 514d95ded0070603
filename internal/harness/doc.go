// Package harness runs chatplay scenarios deterministically.
//
// A scenario is a YAML file holding a mapping config, a timeline of chat
// events, windows during which the mouse button is held, and assertions
// over the resulting trace of executed leaves.
//
// The harness drives the real engine queues through Queue.Tick on a fake
// clock. Each category lane is ticked on its own schedule: StepInterval
// after a step, PausedInterval while paused, and not at all while idle. The
// same pacing the concurrent runners use, without goroutines or sleeps, so
// traces are reproducible and comparable against golden files.
//
// Supported assertions:
//   - trace_contains: action appears (optionally in a category)
//   - trace_order: actions appear in the given order
//   - trace_count: action appears exactly N times
//   - min_gap: at least gap elapses between two actions
//   - same_tick: actions ran in one interpreter step
package harness
