package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/chatplay/internal/compiler"
	"github.com/roach88/chatplay/internal/config"
	"github.com/roach88/chatplay/internal/engine"
	"github.com/roach88/chatplay/internal/events"
	"github.com/roach88/chatplay/internal/input"
	"github.com/roach88/chatplay/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database       string
	Input          string
	Events         string
	Source         string
	StepInterval   time.Duration
	PausedInterval time.Duration

	// Device overrides the input device (for testing).
	Device input.Device

	// SessionIDs overrides the session ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionIDs store.IDGenerator
}

// RunSummary is printed when the engine stops.
type RunSummary struct {
	Config     string   `json:"config"`
	Rules      int      `json:"rules"`
	Categories []string `json:"categories"`
	SessionID  string   `json:"session_id,omitempty"`
	Executed   int64    `json:"executed,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

// newRunCommand builds the command around opts so tests can inject
// devices.
func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [config]",
		Short: "Play chat events as input",
		Long: `Load a mapping and play chat events through the input device.

Events are read one per line from stdin, or from --events. A line is
"id", "user<TAB>id" or "source<TAB>user<TAB>id". The run ends when the
input closes and every queue has drained, or on SIGINT/SIGTERM.

Settings come from the environment (CHATPLAY_CONFIG, CHATPLAY_DB,
CHATPLAY_INPUT, CHATPLAY_LOG_LEVEL, CHATPLAY_STEP_INTERVAL,
CHATPLAY_PAUSED_INTERVAL, CHATPLAY_INBOUND_CAPACITY); flags and the
config argument override them.

Example:
  chatplay run ./config.cue < events.txt
  chatplay run --db ./chatplay.db --input robot ./mapping`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal database (optional)")
	cmd.Flags().StringVar(&opts.Input, "input", "log", "input device (log|robot)")
	cmd.Flags().StringVar(&opts.Events, "events", "", "read events from a file instead of stdin")
	cmd.Flags().StringVar(&opts.Source, "source", events.DefaultSource, "event source for lines that do not name one")
	cmd.Flags().DurationVar(&opts.StepInterval, "step", engine.DefaultStepInterval, "sleep after each step")
	cmd.Flags().DurationVar(&opts.PausedInterval, "paused-step", engine.DefaultPausedInterval, "sleep while a queue is paused")

	return cmd
}

// resolveSettings reads the environment and applies explicitly set flags.
func resolveSettings(opts *RunOptions, args []string, flags *pflag.FlagSet) (config.Settings, error) {
	s, err := config.LoadSettings()
	if err != nil {
		return config.Settings{}, err
	}

	if len(args) > 0 {
		s.ConfigPath = args[0]
	}
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "db":
			s.Database = opts.Database
		case "input":
			s.Input = opts.Input
		case "step":
			s.StepInterval = opts.StepInterval
		case "paused-step":
			s.PausedInterval = opts.PausedInterval
		}
	})

	if s.Input != "log" && s.Input != "robot" {
		return config.Settings{}, fmt.Errorf("invalid input %q: must be log or robot", s.Input)
	}
	return s, nil
}

func runEngine(opts *RunOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	settings, err := resolveSettings(opts, args, cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	logger := newLogger(opts.RootOptions, settings.Level(), cmd.ErrOrStderr())

	logger.Info("loading mapping", "config", settings.ConfigPath)
	loaded, errs := LoadMapping(settings.ConfigPath, LoadModeFailFast)
	if len(errs) > 0 {
		verr := toValidationError(errs[0])
		_ = formatter.Error(verr.Code, verr.Message, nil)
		return WrapExitError(ExitCommandError, "failed to load mapping", errs[0])
	}
	for _, warn := range loaded.Warnings {
		logger.Warn("lint", "code", warn.Code, "line", warn.Line, "message", warn.Message)
	}
	logger.Info("mapping compiled", "rules", len(loaded.Rules))

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := RunSummary{Config: settings.ConfigPath, Rules: len(loaded.Rules)}

	var observer engine.Observer
	var journal *store.Journal
	closeJournal := func() {}
	if settings.Database != "" {
		j, closeFn, err := openJournal(ctx, opts, settings, logger)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer closeFn()
		journal, observer, closeJournal = j, j, closeFn
		summary.SessionID = j.SessionID()
	}

	device := opts.Device
	if device == nil {
		var probe input.ButtonProbe
		if settings.Input == "robot" {
			probe = input.WatchButton(ctx, input.LeftButton, logger).Held
		}
		device = newDevice(settings.Input, probe, logger)
	}

	sched, err := engine.New(compiler.Categories(loaded.Rules), device, engine.Options{
		Observer:        observer,
		Logger:          logger,
		StepInterval:    settings.StepInterval,
		PausedInterval:  settings.PausedInterval,
		InboundCapacity: settings.InboundCapacity,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to provision queues", err)
	}
	summary.Categories = sched.Categories()

	in, closeIn, err := openEvents(opts.Events, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open events", err)
	}
	defer closeIn()

	lines := events.ReadLines(ctx, in, opts.Source, logger)
	envelopes := events.Translate(ctx, lines, loaded.Matcher, logger)

	logger.Info("engine starting", "input", settings.Input, "categories", len(summary.Categories))
	runErr := sched.Run(ctx, envelopes)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", runErr)
	}
	logger.Info("engine stopped")
	closeJournal()

	if journal != nil {
		summary.Executed = journal.Seq()
	}
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}
	fmt.Fprintf(formatter.Writer, "Stopped. %d rule(s), %d queue(s)\n", summary.Rules, len(summary.Categories))
	if summary.SessionID != "" {
		fmt.Fprintf(formatter.Writer, "Session %s: %d action(s) journaled\n", summary.SessionID, summary.Executed)
	}
	return nil
}

// openJournal opens the database and starts a session. The returned func
// flushes the journal, ends the session and closes the database; it may be
// called more than once.
func openJournal(ctx context.Context, opts *RunOptions, settings config.Settings, logger *slog.Logger) (*store.Journal, func(), error) {
	st, err := store.Open(settings.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	gen := opts.SessionIDs
	if gen == nil {
		gen = store.UUIDv7Generator{}
	}
	session, err := st.StartSession(ctx, gen, settings.ConfigPath, time.Now())
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("start session: %w", err)
	}

	journal, err := store.NewJournal(ctx, st, session.ID, logger)
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	logger.Info("session started", "session", session.ID, "db", settings.Database)

	var once sync.Once
	closeFn := func() {
		once.Do(func() {
			journal.Close()
			if dropped := journal.Dropped(); dropped > 0 {
				logger.Warn("executions not journaled", "session", session.ID, "dropped", dropped)
			}
			// The run context may already be cancelled.
			if err := st.EndSession(context.Background(), session.ID, time.Now()); err != nil {
				logger.Error("error ending session", "session", session.ID, "error", err)
			}
			if err := st.Close(); err != nil {
				logger.Error("error closing database", "error", err)
			}
		})
	}
	return journal, closeFn, nil
}

// newDevice builds the named input device. probe is only used by robot.
func newDevice(name string, probe input.ButtonProbe, logger *slog.Logger) input.Device {
	if name == "robot" {
		return input.NewRobot(probe, logger)
	}
	return input.NewLogging(logger)
}

// openEvents returns the event stream: the named file, or stdin.
func openEvents(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
