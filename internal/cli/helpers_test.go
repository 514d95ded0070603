package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chatplay/internal/store"
	"github.com/roach88/chatplay/internal/testutil"
)

const validMapping = `version: "1.0"
mapping: config: [
	{source: "message", id: "up", actions: ["kd38 ku38"]},
	{source: "message", id: "find", actions: ["~kd17~kd70~", "ku17 ku70"], category: "menu"},
]
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// seedJournal writes an ended session with the given executions.
func seedJournal(t *testing.T, dbPath, id string, start time.Time, executions []store.Execution) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.StartSession(ctx, testutil.NewFixedSessionGenerator(id), "config.cue", start)
	require.NoError(t, err)
	for _, e := range executions {
		e.SessionID = id
		require.NoError(t, st.WriteExecution(ctx, e))
	}
	require.NoError(t, st.EndSession(ctx, id, start.Add(time.Second)))
}

// sampleExecutions is a short two-queue session starting at start.
func sampleExecutions(start time.Time) []store.Execution {
	at := func(ms int) time.Time { return start.Add(time.Duration(ms) * time.Millisecond) }
	return []store.Execution{
		{Seq: 1, Category: "_default_", Kind: "key_down", Action: "kd38", At: at(0)},
		{Seq: 2, Category: "menu", Kind: "key_down", Action: "kd17", At: at(5)},
		{Seq: 3, Category: "_default_", Kind: "key_up", Action: "ku38", At: at(10)},
		{Seq: 4, Category: "menu", Kind: "key_up", Action: "ku17", At: at(40)},
	}
}
