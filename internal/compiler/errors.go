package compiler

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Compile error codes (E200-E219).
const (
	ErrEmptyExpr      = "E201" // expression has no tokens
	ErrUnknownToken   = "E202" // token is not part of the grammar
	ErrBadNumber      = "E203" // numeric operand missing or out of range
	ErrUnbalanced     = "E204" // unclosed or stray group delimiter
	ErrEmptyGroup     = "E205" // () or ~~ with nothing inside
	ErrMissingTrigger = "E210" // entry has no source or id
	ErrNoActions      = "E211" // entry has no action expressions
	ErrInvalidPause   = "E212" // unknown pause condition
)

// CompileError reports a problem turning a mapping entry into a Rule.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos // Entry position in the config file, if known
	Offset  int       // Byte offset inside the expression, -1 if not applicable
}

func (e *CompileError) Error() string {
	msg := e.Message
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s (at offset %d)", msg, e.Offset)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("[%s] %s:%d:%d: %s: %s",
			e.Code, e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, msg)
}

func exprError(code string, offset int, format string, args ...any) *CompileError {
	return &CompileError{
		Code:    code,
		Field:   "expr",
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	}
}
