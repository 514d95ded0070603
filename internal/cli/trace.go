package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/chatplay/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string // optional - defaults to the latest session
	Category string // optional - filter to one queue
	List     bool   // list sessions instead of tracing one
}

// TraceEvent is one journaled execution, timed from the session start.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	OffsetMs int64  `json:"offset_ms"`
	Category string `json:"category"`
	Kind     string `json:"kind"`
	Action   string `json:"action"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session  store.Session `json:"session"`
	Timeline []TraceEvent  `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	ByCategory  map[string]int `json:"by_category"`
	ByKind      map[string]int `json:"by_kind"`
	IsComplete  bool           `json:"is_complete"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled actions of a session",
		Long: `Show what a run actually pressed, from its journal database.

The output includes:
- Timeline: every executed action with its offset from the session start
- Stats: counts per queue and per action kind, and whether the run ended

Examples:
  chatplay trace --db ./chatplay.db
  chatplay trace --db ./chatplay.db --session 0192...
  chatplay trace --db ./chatplay.db --category menu --format json
  chatplay trace --db ./chatplay.db --list`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to trace (default: latest)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "filter to one category")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list sessions")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.List {
		return listSessions(ctx, st, formatter)
	}

	session, err := resolveSession(ctx, st, opts.Session)
	if err != nil {
		code := ErrCodeDatabase
		if errors.Is(err, store.ErrSessionNotFound) {
			code = ErrCodeSession
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to find session", err)
	}

	executions, err := st.ReadExecutions(ctx, session.ID, opts.Category)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read executions", err)
	}

	result := buildTrace(session, executions)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	printTrace(formatter, result, opts.Category)
	return nil
}

// resolveSession returns the named session, or the latest one.
func resolveSession(ctx context.Context, st *store.Store, id string) (store.Session, error) {
	if id == "" {
		return st.LatestSession(ctx)
	}
	return st.GetSession(ctx, id)
}

// buildTrace converts journal rows into a timeline with stats.
func buildTrace(session store.Session, executions []store.Execution) TraceResult {
	result := TraceResult{
		Session:  session,
		Timeline: make([]TraceEvent, len(executions)),
		Stats: TraceStats{
			TotalEvents: len(executions),
			ByCategory:  make(map[string]int),
			ByKind:      make(map[string]int),
			IsComplete:  session.EndedAt != nil,
		},
	}
	for i, e := range executions {
		result.Timeline[i] = TraceEvent{
			Seq:      e.Seq,
			OffsetMs: e.At.Sub(session.StartedAt).Milliseconds(),
			Category: e.Category,
			Kind:     e.Kind,
			Action:   e.Action,
		}
		result.Stats.ByCategory[e.Category]++
		result.Stats.ByKind[e.Kind]++
	}
	return result
}

func printTrace(formatter *OutputFormatter, result TraceResult, category string) {
	w := formatter.Writer
	s := result.Session

	fmt.Fprintf(w, "Session: %s\n", s.ID)
	fmt.Fprintf(w, "Config:  %s\n", s.ConfigPath)
	fmt.Fprintf(w, "Started: %s\n", s.StartedAt.Format("2006-01-02 15:04:05.000"))
	if s.EndedAt != nil {
		fmt.Fprintf(w, "Ended:   %s\n", s.EndedAt.Format("2006-01-02 15:04:05.000"))
	} else {
		fmt.Fprintln(w, "Ended:   (still running or interrupted)")
	}
	fmt.Fprintln(w)

	if len(result.Timeline) == 0 {
		if category != "" {
			fmt.Fprintf(w, "No actions in category %s\n", category)
		} else {
			fmt.Fprintln(w, "No actions journaled")
		}
		return
	}

	fmt.Fprintln(w, "Timeline:")
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  [%d] +%dms %-12s %s\n", ev.Seq, ev.OffsetMs, ev.Category, ev.Action)
	}
	fmt.Fprintln(w)

	categories := make([]string, 0, len(result.Stats.ByCategory))
	for name := range result.Stats.ByCategory {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	fmt.Fprintf(w, "Stats: %d action(s)\n", result.Stats.TotalEvents)
	for _, name := range categories {
		fmt.Fprintf(w, "  %s: %d\n", name, result.Stats.ByCategory[name])
	}
}

func listSessions(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(sessions)
	}

	w := formatter.Writer
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return nil
	}
	for _, s := range sessions {
		state := "ended"
		if s.EndedAt == nil {
			state = "open"
		}
		fmt.Fprintf(w, "%s  %s  %-5s  %s\n", s.ID, s.StartedAt.Format("2006-01-02 15:04:05"), state, s.ConfigPath)
	}
	return nil
}
