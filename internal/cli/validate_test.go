package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidMapping(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.cue", validMapping)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Mapping valid (2 rules)")
	assert.NotContains(t, out, "warning")
}

func TestValidateStuckKeyIsWarning(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.cue", `version: "1.0"
mapping: config: [{source: "message", id: "up", actions: ["kd38"]}]
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Mapping valid (1 rules)")
	assert.Contains(t, out, "warning W103")
	assert.Contains(t, out, "key 38 is pressed but never released")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.cue", `version: "1.0"
mapping: config: [
	{source: "message", id: "a", actions: ["~kd1~w5~"]},
	{source: "message", id: "b", actions: ["kd1 (ku1"]},
	{source: "message", id: "c", actions: ["mr5"]},
]
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with")

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E101")
	assert.Contains(t, out, "E204")
	assert.Contains(t, out, "E203")
}

func TestValidateAtomicNesting(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.cue", `version: "1.0"
mapping: config: [{source: "message", id: "a", actions: ["~kd1~w5~"]}]
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Contains(t, out, "error E101")
}

func TestValidateNormalizedDuplicate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.cue", `version: "1.0"
mapping: config: [
	{source: "message", id: "Find", actions: ["kd1 ku1"]},
	{source: "message", id: "  find ", actions: ["kd2 ku2"]},
]
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Contains(t, out, "E102")
}

func TestValidateJSONErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.cue", `version: "1.0"
mapping: config: [
	{source: "message", id: "a", actions: ["zz"]},
	{source: "message", id: "b", actions: ["kd"]},
]
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)

	var response struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	assert.False(t, response.Data.Valid)
	require.Len(t, response.Data.Errors, 2)
	assert.Equal(t, "E202", response.Data.Errors[0].Code)
	assert.Equal(t, "E203", response.Data.Errors[1].Code)
	assert.Greater(t, response.Data.Errors[0].Line, 0)
	require.NotNil(t, response.Error)
	assert.Equal(t, "E202", response.Error.Code)
}

func TestValidateJSONSuccess(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.cue", validMapping)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var response struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.True(t, response.Data.Valid)
	assert.Equal(t, 2, response.Data.Rules)
}

func TestValidateLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode string
	}{
		{
			name:     "version mismatch",
			content:  "version: \"0.9\"\nmapping: config: []\n",
			wantCode: "E009",
		},
		{
			name:     "schema violation",
			content:  "version: \"1.0\"\nmapping: config: [{source: \"message\", id: \"a\"}]\n",
			wantCode: "E008",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.cue", tt.content)

			out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
			require.Error(t, err)
			assert.Contains(t, out, tt.wantCode)
		})
	}
}

func TestValidateMissingFile(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/config.cue")
	require.Error(t, err)
	assert.Contains(t, out, "E005")
}

func TestFlattenErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.cue", `version: "1.0"
mapping: config: [
	{source: "message", id: "a", actions: ["zz"]},
	{source: "message", id: "b", actions: ["yy"]},
]
`)

	result, errs := LoadMapping(path, LoadModeFailFast)
	assert.Nil(t, result)
	assert.Len(t, errs, 1)

	result, errs = LoadMapping(path, LoadModeCollectAll)
	assert.Nil(t, result)
	assert.Len(t, errs, 2)
}
