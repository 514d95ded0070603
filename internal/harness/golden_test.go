package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Format(t *testing.T) {
	result := NewResult()
	result.Trace = []TraceEvent{
		{Seq: 1, Tick: 7, AtMs: 20, Category: "menu", Kind: "key_down", Action: "kd17"},
	}

	data, err := Snapshot("demo", result)
	require.NoError(t, err)

	want := `{
  "scenario_name": "demo",
  "trace": [
    {
      "seq": 1,
      "at_ms": 20,
      "category": "menu",
      "action": "kd17"
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}

func TestSnapshot_Deterministic(t *testing.T) {
	s := mustParseScenario(t, minimalScenario)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := Snapshot(s.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
