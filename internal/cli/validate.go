package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/chatplay/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Rules    int                        `json:"rules"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a mapping without running it",
		Long: `Validate a CUE mapping file or package directory.

Checks the schema, parses every action expression and runs the rule
checks (atomic nesting, duplicate triggers). Lint findings such as keys
that are pressed but never released are reported as warnings and do not
fail validation.

Exit codes:
  0 - Mapping is valid (warnings allowed)
  1 - Mapping has errors`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, errs := LoadMapping(path, LoadModeCollectAll)
	if len(errs) > 0 {
		verrs := make([]compiler.ValidationError, len(errs))
		for i, err := range errs {
			verrs[i] = toValidationError(err)
		}
		return outputValidationErrors(formatter, verrs)
	}

	formatter.VerboseLog("Compiled %d rule(s) from %s", len(loaded.Rules), path)

	result := ValidationResult{Valid: true, Rules: len(loaded.Rules), Warnings: loaded.Warnings}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Mapping valid (%d rules)\n", result.Rules)
	for _, warn := range result.Warnings {
		printValidationError(formatter, "warning", warn)
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.JSON(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		printValidationError(formatter, "error", err)
	}
	return failure
}

func printValidationError(formatter *OutputFormatter, severity string, err compiler.ValidationError) {
	w := formatter.Writer
	if err.Line > 0 {
		fmt.Fprintf(w, "line %d\n", err.Line)
	}
	fmt.Fprintf(w, "  %s %s: %s: %s\n\n", severity, err.Code, err.Field, err.Message)
}
