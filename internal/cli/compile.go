package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/chatplay/internal/action"
	"github.com/roach88/chatplay/internal/compiler"
	"github.com/roach88/chatplay/internal/engine"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledRule is the printable form of a compiled rule.
type CompiledRule struct {
	Source   string   `json:"source"`
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Pause    string   `json:"pause"`
	Kind     string   `json:"kind"`
	Action   string   `json:"action"`
	Leaves   []string `json:"leaves"`
}

// CompilationResult holds the compiled rules and the queues they need.
type CompilationResult struct {
	Rules      []CompiledRule `json:"rules"`
	Categories []string       `json:"categories"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <config>",
		Short: "Compile a mapping and print its action trees",
		Long: `Compile a CUE mapping and print every rule's action tree.

Shows how each trigger's expressions parse, which queue the rule runs on,
and the leaves it will press, in order. With --output the result is
written as JSON to a file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, errs := LoadMapping(path, LoadModeFailFast)
	if len(errs) > 0 {
		verr := toValidationError(errs[0])
		_ = formatter.Error(verr.Code, verr.Message, verr)
		return WrapExitError(ExitCommandError, "compilation failed", errs[0])
	}

	result, err := buildCompilationResult(loaded.Rules)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "compilation failed", err)
	}

	if opts.Output != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to marshal result", err)
		}
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("failed to write output: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("Wrote %d rule(s) to %s", len(result.Rules), opts.Output)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, r := range result.Rules {
		fmt.Fprintf(w, "%s %q -> [%s] %s\n", r.Source, r.ID, r.Category, r.Action)
		if r.Pause != action.PauseNone.String() {
			fmt.Fprintf(w, "  pause: %s\n", r.Pause)
		}
	}
	fmt.Fprintf(w, "\n✓ Compiled %d rule(s) into %d queue(s)\n", len(result.Rules), len(result.Categories))
	return nil
}

// buildCompilationResult renders rules and the provisioned queue names.
func buildCompilationResult(rules []compiler.Rule) (CompilationResult, error) {
	categories, err := engine.Provision(compiler.Categories(rules))
	if err != nil {
		return CompilationResult{}, err
	}

	result := CompilationResult{
		Rules:      make([]CompiledRule, len(rules)),
		Categories: categories,
	}
	for i, r := range rules {
		name, _ := r.Envelope().Route()
		leaves := action.Leaves(r.Action)
		out := CompiledRule{
			Source:   r.Source,
			ID:       r.ID,
			Category: name,
			Pause:    r.Pause.String(),
			Kind:     action.Kind(r.Action),
			Action:   r.Action.String(),
			Leaves:   make([]string, len(leaves)),
		}
		for j, leaf := range leaves {
			out.Leaves[j] = leaf.String()
		}
		result.Rules[i] = out
	}
	return result, nil
}
