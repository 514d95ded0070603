package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: smallest valid scenario
config: |
  version: "1.0"
  mapping: config: []
events:
  - {at: 0ms, id: up}
assertions:
  - {type: trace_count, action: kd1, count: 0}
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Len(t, s.Events, 1)
	assert.Equal(t, time.Duration(0), s.Tick.D())
}

func TestParseScenario_SortsEvents(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: order
description: events out of order
config: "x"
events:
  - {at: 200ms, id: c}
  - {at: 0ms, id: a}
  - {at: 200ms, id: d}
  - {at: 100ms, id: b}
assertions:
  - {type: trace_count, action: kd1, count: 0}
`))
	require.NoError(t, err)

	var ids []string
	for _, ev := range s.Events {
		ids = append(ids, ev.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: y\nconfig: z\nevents: [{at: 0ms, id: a}]\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: y\nconfig: z\nevents: [{at: 0ms, id: a}]\nassertions: [{type: trace_count, action: a}]\n",
			wantErr: "name is required",
		},
		{
			name:    "both configs",
			yaml:    "name: x\ndescription: y\nconfig: z\nconfig_file: f.cue\nevents: [{at: 0ms, id: a}]\nassertions: [{type: trace_count, action: a}]\n",
			wantErr: "exactly one of config and config_file",
		},
		{
			name:    "no events",
			yaml:    "name: x\ndescription: y\nconfig: z\nevents: []\nassertions: [{type: trace_count, action: a}]\n",
			wantErr: "events list is required",
		},
		{
			name:    "bad duration",
			yaml:    "name: x\ndescription: y\nconfig: z\nevents: [{at: soon, id: a}]\nassertions: [{type: trace_count, action: a}]\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "event without id",
			yaml:    "name: x\ndescription: y\nconfig: z\nevents: [{at: 0ms}]\nassertions: [{type: trace_count, action: a}]\n",
			wantErr: "events[0]: id is required",
		},
		{
			name:    "empty window",
			yaml:    "name: x\ndescription: y\nconfig: z\nevents: [{at: 0ms, id: a}]\nbutton_held: [{from: 1s, to: 1s}]\nassertions: [{type: trace_count, action: a}]\n",
			wantErr: "button_held[0]",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: y\nconfig: z\nevents: [{at: 0ms, id: a}]\nassertions: [{type: final_state}]\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "min_gap without gap",
			yaml:    "name: x\ndescription: y\nconfig: z\nevents: [{at: 0ms, id: a}]\nassertions: [{type: min_gap, from: a, to: b}]\n",
			wantErr: "gap must be positive",
		},
		{
			name:    "same_tick needs two",
			yaml:    "name: x\ndescription: y\nconfig: z\nevents: [{at: 0ms, id: a}]\nassertions: [{type: same_tick, actions: [a]}]\n",
			wantErr: "at least two actions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_ResolvesConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.cue"), []byte(`version: "1.0"
mapping: config: [{source: "message", id: "up", actions: ["kd38"]}]
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.yaml"), []byte(`
name: file
description: config from file
config_file: m.cue
events: [{at: 0ms, id: up}]
assertions: [{type: trace_count, action: kd38, count: 1}]
`), 0o644))

	s, err := LoadScenario(filepath.Join(dir, "s.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "m.cue"), s.ConfigFile)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestLoadScenario_MissingConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.yaml"), []byte(`
name: file
description: config from file
config_file: nowhere.cue
events: [{at: 0ms, id: up}]
assertions: [{type: trace_count, action: kd38, count: 1}]
`), 0o644))

	_, err := LoadScenario(filepath.Join(dir, "s.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestHeldAt(t *testing.T) {
	s := &Scenario{ButtonHeld: []Window{
		{From: Duration(100 * time.Millisecond), To: Duration(200 * time.Millisecond)},
	}}

	assert.False(t, s.heldAt(99*time.Millisecond))
	assert.True(t, s.heldAt(100*time.Millisecond))
	assert.True(t, s.heldAt(199*time.Millisecond))
	assert.False(t, s.heldAt(200*time.Millisecond), "windows are half-open")
}
