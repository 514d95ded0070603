package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMaxDuration bounds a scenario's virtual run time.
const DefaultMaxDuration = 30 * time.Second

// Duration is a time.Duration written as a Go duration string ("250ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string like \"250ms\"", node.Line)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// Scenario defines a deterministic run of the scheduler.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is an inline CUE mapping. Exactly one of Config and
	// ConfigFile must be set.
	Config string `yaml:"config,omitempty"`

	// ConfigFile is a path to a CUE mapping, relative to the scenario file.
	ConfigFile string `yaml:"config_file,omitempty"`

	// Tick and PausedTick override the runner pacing.
	Tick       Duration `yaml:"tick,omitempty"`
	PausedTick Duration `yaml:"paused_tick,omitempty"`

	// MaxDuration fails the scenario if queues are still busy after it.
	MaxDuration Duration `yaml:"max_duration,omitempty"`

	// Events is the chat timeline.
	Events []EventStep `yaml:"events"`

	// ButtonHeld lists half-open [from, to) windows with the button down.
	ButtonHeld []Window `yaml:"button_held,omitempty"`

	// Assertions validate the trace.
	Assertions []Assertion `yaml:"assertions"`
}

// EventStep is one chat event at a virtual time offset.
type EventStep struct {
	At     Duration `yaml:"at"`
	Source string   `yaml:"source,omitempty"`
	ID     string   `yaml:"id"`
	User   string   `yaml:"user,omitempty"`
}

// Window is a half-open time range.
type Window struct {
	From Duration `yaml:"from"`
	To   Duration `yaml:"to"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action is a grammar token ("kd38"), used by trace_contains and trace_count.
	Action string `yaml:"action,omitempty"`

	// Actions is used by trace_order and same_tick.
	Actions []string `yaml:"actions,omitempty"`

	// Category restricts the assertion to one queue.
	Category string `yaml:"category,omitempty"`

	// Count is used by trace_count.
	Count int `yaml:"count,omitempty"`

	// From, To and Gap are used by min_gap.
	From string   `yaml:"from,omitempty"`
	To   string   `yaml:"to,omitempty"`
	Gap  Duration `yaml:"gap,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertMinGap        = "min_gap"
	AssertSameTick      = "same_tick"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// ConfigFile is resolved relative to the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.ConfigFile != "" && !filepath.IsAbs(scenario.ConfigFile) {
		scenario.ConfigFile = filepath.Join(filepath.Dir(path), scenario.ConfigFile)
	}
	if scenario.ConfigFile != "" {
		if _, err := os.Stat(scenario.ConfigFile); err != nil {
			return nil, fmt.Errorf("invalid scenario: config file not found: %s", scenario.ConfigFile)
		}
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	// Events fire in time order; equal times keep file order.
	sort.SliceStable(scenario.Events, func(i, j int) bool {
		return scenario.Events[i].At < scenario.Events[j].At
	})

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Config == "") == (s.ConfigFile == "") {
		return fmt.Errorf("exactly one of config and config_file is required")
	}
	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.Tick < 0 || s.PausedTick < 0 || s.MaxDuration < 0 {
		return fmt.Errorf("tick, paused_tick and max_duration must be non-negative")
	}

	for i, ev := range s.Events {
		if ev.ID == "" {
			return fmt.Errorf("events[%d]: id is required", i)
		}
		if ev.At < 0 {
			return fmt.Errorf("events[%d]: at must be non-negative", i)
		}
	}

	for i, w := range s.ButtonHeld {
		if w.To <= w.From {
			return fmt.Errorf("button_held[%d]: to must be after from", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertMinGap:
		if a.From == "" || a.To == "" {
			return fmt.Errorf("assertions[%d]: from and to are required for min_gap", index)
		}
		if a.Gap <= 0 {
			return fmt.Errorf("assertions[%d]: gap must be positive for min_gap", index)
		}
	case AssertSameTick:
		if len(a.Actions) < 2 {
			return fmt.Errorf("assertions[%d]: at least two actions are required for same_tick", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// heldAt reports whether the button is down at offset.
func (s *Scenario) heldAt(offset time.Duration) bool {
	for _, w := range s.ButtonHeld {
		if offset >= w.From.D() && offset < w.To.D() {
			return true
		}
	}
	return false
}
