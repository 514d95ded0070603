package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where golden traces live, relative to the test package.
const GoldenDir = "testdata/scenarios/golden"

// TraceSnapshot is the golden-file form of a run. Ticks are left out so
// that pacing changes which do not move any action stay invisible.
type TraceSnapshot struct {
	ScenarioName string          `json:"scenario_name"`
	Trace        []snapshotEvent `json:"trace"`
	Unmatched    []string        `json:"unmatched,omitempty"`
	StepErrors   []string        `json:"step_errors,omitempty"`
}

type snapshotEvent struct {
	Seq      int64  `json:"seq"`
	AtMs     int64  `json:"at_ms"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// Snapshot renders a result as golden-file bytes.
func Snapshot(name string, result *Result) ([]byte, error) {
	snap := TraceSnapshot{
		ScenarioName: name,
		Trace:        make([]snapshotEvent, len(result.Trace)),
		Unmatched:    result.Unmatched,
		StepErrors:   result.StepErrors,
	}
	for i, ev := range result.Trace {
		snap.Trace[i] = snapshotEvent{Seq: ev.Seq, AtMs: ev.AtMs, Category: ev.Category, Action: ev.Action}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/scenarios/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
