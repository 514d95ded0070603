// Package engine implements the chatplay action scheduler.
//
// The scheduler turns routed action trees into paced input on a Device.
// Every category owns an independent queue; queues never block each other.
//
// ARCHITECTURE:
//
// Per-category pipeline:
// 1. Router receives a routing envelope and sends its Container on the
//    category's bounded inbound channel
// 2. The queue's feeder moves containers from inbound to the resident buffer
// 3. The queue's runner ticks: pause check, then one interpreter step
// 4. The interpreter unrolls Sequences one element per step, runs
//    AtomicSequences in a single step, and gates on WaitUntil deadlines
// 5. Executed leaves go to the Device and are reported to the Observer
//
// Pacing: runners sleep StepInterval after a step and PausedInterval while
// the head is paused. Waits are deadlines, not sleeps, so a waiting head
// never stalls another category.
//
// CRITICAL PATTERNS:
//
// Pause check and step run under the same buffer lock. A paused head is
// never popped or rewritten.
//
// Compiled action trees are never mutated. The interpreter only replaces
// the head container with new containers built from sub-slices.
//
// Structural problems (wrong nesting, unknown category) are ActionErrors:
// logged, skipped, never fatal.
package engine
