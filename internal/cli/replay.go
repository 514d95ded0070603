package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/chatplay/internal/action"
	"github.com/roach88/chatplay/internal/compiler"
	"github.com/roach88/chatplay/internal/engine"
	"github.com/roach88/chatplay/internal/input"
	"github.com/roach88/chatplay/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - defaults to the latest session
	Category string // optional - replay one queue only
	Input    string
	NoWait   bool // play back to back, ignoring recorded timing

	// Device overrides the input device (for testing).
	Device input.Device

	// Clock overrides the clock used for pacing (for testing).
	Clock engine.Clock
}

// ReplayResult holds the replay outcome.
type ReplayResult struct {
	SessionID string   `json:"session_id"`
	Replayed  int      `json:"replayed"`
	Skipped   []string `json:"skipped,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return newReplayCommand(&ReplayOptions{RootOptions: rootOpts})
}

// newReplayCommand builds the command around opts so tests can inject
// devices.
func newReplayCommand(opts *ReplayOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Play a journaled session back on the input device",
		Long: `Play the actions journaled by a previous run back on an input device.

Actions are performed in journal order. By default the recorded spacing
between actions is kept; --no-wait plays them back to back. Journal rows
that no longer parse as a single action are skipped and reported.

Exit codes:
  0 - Every action was replayed
  1 - Some actions were skipped
  2 - Command error (database not found, etc.)

Examples:
  chatplay replay --db ./chatplay.db
  chatplay replay --db ./chatplay.db --session 0192... --category camera
  chatplay replay --db ./chatplay.db --input robot --no-wait`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to replay (default: latest)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "replay one category only")
	cmd.Flags().StringVar(&opts.Input, "input", "log", "input device (log|robot)")
	cmd.Flags().BoolVar(&opts.NoWait, "no-wait", false, "ignore recorded timing")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Input != "log" && opts.Input != "robot" {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid input %q: must be log or robot", opts.Input))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

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

	device := opts.Device
	if device == nil {
		device = newDevice(opts.Input, nil, newLogger(opts.RootOptions, slog.LevelInfo, cmd.ErrOrStderr()))
	}
	clock := opts.Clock
	if clock == nil {
		clock = engine.RealClock{}
	}

	result, err := replayExecutions(ctx, executions, device, clock, !opts.NoWait)
	result.SessionID = session.ID
	if err != nil {
		return WrapExitError(ExitCommandError, "replay interrupted", err)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "Replayed %d action(s) from session %s\n", result.Replayed, result.SessionID)
		for _, s := range result.Skipped {
			fmt.Fprintf(formatter.Writer, "  skipped: %s\n", s)
		}
	}

	if len(result.Skipped) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d action(s) skipped", len(result.Skipped)))
	}
	return nil
}

// replayExecutions performs each journaled leaf on device. With paced set,
// the gap between consecutive rows is waited out on clock.
func replayExecutions(ctx context.Context, executions []store.Execution, device input.Device, clock engine.Clock, paced bool) (ReplayResult, error) {
	var result ReplayResult
	var prev time.Time

	for i, e := range executions {
		if paced && i > 0 {
			if gap := e.At.Sub(prev); gap > 0 {
				select {
				case <-ctx.Done():
					return result, ctx.Err()
				case <-clock.After(gap):
				}
			}
		}
		prev = e.At

		leaf, err := compiler.ParseExpr(e.Action)
		if err != nil || !action.IsLeaf(leaf) {
			result.Skipped = append(result.Skipped, fmt.Sprintf("[%d] %s", e.Seq, e.Action))
			continue
		}
		input.Perform(device, leaf)
		result.Replayed++
	}
	return result, nil
}
