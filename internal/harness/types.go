package harness

import "time"

// TraceEvent is one executed leaf.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Tick     int64  `json:"tick"`
	AtMs     int64  `json:"at_ms"`
	Category string `json:"category"`
	Kind     string `json:"kind"`
	Action   string `json:"action"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace contains every executed leaf in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion and run failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// StepErrors are structural problems the engine logged and skipped.
	// They do not fail the scenario.
	StepErrors []string `json:"step_errors,omitempty"`

	// Unmatched lists event IDs no rule was bound to.
	Unmatched []string `json:"unmatched,omitempty"`

	// Elapsed is the virtual time the run took.
	Elapsed time.Duration `json:"elapsed"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
