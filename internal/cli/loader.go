package cli

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/roach88/chatplay/internal/compiler"
	"github.com/roach88/chatplay/internal/config"
	"github.com/roach88/chatplay/internal/events"
)

// LoadMode controls how errors are handled during mapping loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains a loaded and compiled mapping.
type LoadResult struct {
	File     *config.File
	Rules    []compiler.Rule
	Matcher  *events.Matcher
	Warnings []compiler.ValidationError
}

// Error code constants shared by CLI commands. Config and compiler codes
// come from their packages.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E301" // Journal database error
	ErrCodeSession     = "E302" // Session not found
	ErrCodeTestFailed  = "E401" // One or more scenarios failed
)

// LoadMapping loads the CUE mapping at path, compiles its rules and
// indexes them for matching.
//
// In LoadModeFailFast only the first error is returned. In
// LoadModeCollectAll every compile and validation error is returned.
// The result is nil whenever errors are returned.
func LoadMapping(path string, mode LoadMode) (*LoadResult, []error) {
	file, err := config.Load(path)
	if err != nil {
		return nil, []error{err}
	}

	rules, err := compiler.CompileMapping(file.Mapping.Config)
	if err != nil {
		errs := flattenErrors(err)
		if mode == LoadModeFailFast {
			return nil, errs[:1]
		}
		return nil, errs
	}

	matcher, err := events.NewMatcher(rules)
	if err != nil {
		return nil, []error{err}
	}

	return &LoadResult{
		File:     file,
		Rules:    rules,
		Matcher:  matcher,
		Warnings: compiler.Lint(rules),
	}, nil
}

// flattenErrors expands joined errors into their parts.
func flattenErrors(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flattenErrors(e)...)
		}
		return out
	}
	return []error{err}
}

// toValidationError converts any load, compile or validation error into
// the common reporting shape.
func toValidationError(err error) compiler.ValidationError {
	var (
		loadErr    *config.LoadError
		compileErr *compiler.CompileError
		verr       compiler.ValidationError
		verrPtr    *compiler.ValidationError
	)
	switch {
	case errors.As(err, &verrPtr):
		return *verrPtr
	case errors.As(err, &verr):
		return verr
	case errors.As(err, &compileErr):
		msg := compileErr.Message
		if compileErr.Offset >= 0 {
			msg = fmt.Sprintf("%s (at offset %d)", msg, compileErr.Offset)
		}
		return compiler.ValidationError{
			Field:   compileErr.Field,
			Message: msg,
			Code:    compileErr.Code,
			Line:    lineOf(compileErr.Pos),
		}
	case errors.As(err, &loadErr):
		return compiler.ValidationError{
			Field:   "config",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Line:    lineOf(loadErr.Pos),
		}
	default:
		return compiler.ValidationError{Field: "config", Message: err.Error(), Code: ErrCodeGeneric}
	}
}

// lineOf extracts the line number from a CUE position, or 0.
func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}
