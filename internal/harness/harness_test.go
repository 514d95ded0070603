package harness

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func mustParseScenario(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_UpWaitDownTiming(t *testing.T) {
	s := mustParseScenario(t, `
name: timing
description: wait gate
config: |
  version: "1.0"
  mapping: config: [{source: "message", id: "go", actions: ["kd38 w1000 kd40"]}]
events:
  - {at: 0ms, id: go}
assertions:
  - {type: trace_count, action: kd40, count: 1}
`)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, int64(0), result.Trace[0].AtMs)
	assert.Equal(t, int64(1020), result.Trace[1].AtMs)
	assert.Equal(t, "key_down", result.Trace[1].Kind)
	assert.GreaterOrEqual(t, result.Elapsed, 1020*time.Millisecond)
}

func TestRun_CustomTick(t *testing.T) {
	s := mustParseScenario(t, `
name: slow
description: custom tick
tick: 100ms
config: |
  version: "1.0"
  mapping: config: [{source: "message", id: "go", actions: ["kd1 ku1 kd2"]}]
events:
  - {at: 0ms, id: go}
assertions:
  - {type: trace_order, actions: [kd1, ku1, kd2]}
`)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	var at []int64
	for _, ev := range result.Trace {
		at = append(at, ev.AtMs)
	}
	assert.Equal(t, []int64{0, 100, 200}, at)
}

func TestRun_CategoriesInterleave(t *testing.T) {
	s := mustParseScenario(t, `
name: interleave
description: two categories progress independently
config: |
  version: "1.0"
  mapping: config: [
    {source: "message", id: "walk", actions: ["kd87 w100 ku87"], category: "move"},
    {source: "message", id: "look", actions: ["mr10x0 mr10x0"], category: "camera"},
  ]
events:
  - {at: 0ms, id: walk}
  - {at: 0ms, id: look}
assertions:
  - {type: trace_order, category: move, actions: [kd87, ku87]}
  - {type: trace_count, category: camera, action: mr10x0, count: 2}
`)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	// camera sorts before move, so it ticks first at equal instants.
	var got []string
	for _, ev := range result.Trace {
		got = append(got, ev.Category+":"+ev.Action)
	}
	assert.Equal(t, []string{"camera:mr10x0", "move:kd87", "camera:mr10x0", "move:ku87"}, got)
}

func TestRun_MaxDurationExceeded(t *testing.T) {
	s := mustParseScenario(t, `
name: stuck
description: button never released
max_duration: 1s
config: |
  version: "1.0"
  mapping: config: [{source: "message", id: "go", actions: ["kd1"], pause: "button_held"}]
events:
  - {at: 0ms, id: go}
button_held:
  - {from: 0ms, to: 1h}
assertions:
  - {type: trace_count, action: kd1, count: 0}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "still running after 1s")
	assert.Empty(t, result.Trace)
}

func TestRun_FailedAssertion(t *testing.T) {
	s := mustParseScenario(t, `
name: wrong
description: assertion does not hold
config: |
  version: "1.0"
  mapping: config: [{source: "message", id: "go", actions: ["kd1 kd2"]}]
events:
  - {at: 0ms, id: go}
assertions:
  - {type: trace_order, actions: [kd2, kd1]}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: trace_order")
}

func TestRun_RejectsWaitInsideAtomic(t *testing.T) {
	s := mustParseScenario(t, `
name: nesting
description: atomic nesting rejected at compile time
config: |
  version: "1.0"
  mapping: config: [{source: "message", id: "go", actions: ["~kd1~w5~"]}]
events:
  - {at: 0ms, id: go}
assertions:
  - {type: trace_count, action: kd1, count: 1}
`)

	_, err := Run(s)
	require.Error(t, err, "wrong nesting is caught when the mapping compiles")
	assert.Contains(t, err.Error(), "E101")
}

func TestRun_BadConfig(t *testing.T) {
	s := mustParseScenario(t, `
name: bad
description: wrong version
config: |
  version: "2.0"
  mapping: config: []
events:
  - {at: 0ms, id: go}
assertions:
  - {type: trace_count, action: kd1, count: 0}
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration layout changed")
}

func TestDeliver_RoutesThroughInbound(t *testing.T) {
	s := mustParseScenario(t, `
name: routed
description: events go through the router
config: |
  version: "1.0"
  mapping: config: [{source: "message", id: "look", actions: ["mr5x0"], category: "camera"}]
events:
  - {at: 0ms, id: look}
  - {at: 0ms, id: nothing}
`)

	h, err := newHarness(s)
	require.NoError(t, err)

	result := NewResult()
	now := h.clock.Now()
	for _, step := range s.Events {
		h.deliver(step, now, result)
	}

	q, ok := h.scheduler.Queue("camera")
	require.True(t, ok)
	assert.Equal(t, 0, len(q.Inbound()), "inbound fed into the buffer")
	assert.Equal(t, 1, q.Buffer().Len())
	assert.True(t, h.lanes["camera"].busy)
	assert.Equal(t, []string{"nothing"}, result.Unmatched)
	assert.Empty(t, result.StepErrors)
}
