package engine

import (
	"errors"
	"fmt"
)

// ActionError represents a structural or delivery problem detected while
// routing or interpreting actions.
//
// Action errors include:
//   - Wrong nesting: a compound or deferred action inside an AtomicSequence
//   - Unexecutable action: a non-leaf reached the leaf execution path
//   - Unknown category: an envelope named a queue that was never provisioned
//   - Send failed: the destination queue's worker is gone
//   - Duplicate category: two provisioned queues share a name
//
// None of these are fatal. The offending item is logged and skipped.
type ActionError struct {
	// Code identifies the error category.
	Code ActionErrorCode

	// Message is a human-readable description.
	Message string

	// Category is the queue involved, when known.
	Category string

	// Action is the offending action in grammar form, when known.
	Action string
}

// ActionErrorCode categorizes action errors.
type ActionErrorCode string

const (
	// ErrCodeWrongNesting indicates a non-leaf inside an AtomicSequence.
	ErrCodeWrongNesting ActionErrorCode = "WRONG_NESTING"

	// ErrCodeUnexecutable indicates a non-leaf reached leaf execution.
	ErrCodeUnexecutable ActionErrorCode = "UNEXECUTABLE_ACTION"

	// ErrCodeUnknownCategory indicates no queue exists for a routed name.
	ErrCodeUnknownCategory ActionErrorCode = "UNKNOWN_CATEGORY"

	// ErrCodeSendFailed indicates the destination queue stopped accepting work.
	ErrCodeSendFailed ActionErrorCode = "SEND_FAILED"

	// ErrCodeDuplicateCategory indicates a category name was provisioned twice.
	ErrCodeDuplicateCategory ActionErrorCode = "DUPLICATE_CATEGORY"

	// ErrCodeEmptyAction indicates an envelope without an action.
	ErrCodeEmptyAction ActionErrorCode = "EMPTY_ACTION"
)

// Error implements the error interface.
func (e *ActionError) Error() string {
	if e.Category != "" && e.Action != "" {
		return fmt.Sprintf("%s: %s (category=%s, action=%s)", e.Code, e.Message, e.Category, e.Action)
	}
	if e.Category != "" {
		return fmt.Sprintf("%s: %s (category=%s)", e.Code, e.Message, e.Category)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err (or anything it wraps or joins) is an
// ActionError with the given code.
func HasCode(err error, code ActionErrorCode) bool {
	var ae *ActionError
	if errors.As(err, &ae) && ae.Code == code {
		return true
	}
	// errors.As stops at the first match; joined errors may hold more.
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			if HasCode(inner, code) {
				return true
			}
		}
	}
	return false
}

// IsNestingError returns true if err is a wrong-nesting error.
func IsNestingError(err error) bool {
	return HasCode(err, ErrCodeWrongNesting)
}

// IsUnknownCategoryError returns true if err is an unknown-category error.
func IsUnknownCategoryError(err error) bool {
	return HasCode(err, ErrCodeUnknownCategory)
}

// IsSendError returns true if err is a send-failed error.
func IsSendError(err error) bool {
	return HasCode(err, ErrCodeSendFailed)
}

// NewNestingError creates an ActionError for a non-leaf inside an atomic group.
func NewNestingError(category, action string) *ActionError {
	return &ActionError{
		Code:     ErrCodeWrongNesting,
		Message:  "wrong action nesting: atomic sequences may only contain key and mouse actions",
		Category: category,
		Action:   action,
	}
}

// NewUnexecutableError creates an ActionError for a non-leaf on the leaf path.
func NewUnexecutableError(category, action string) *ActionError {
	return &ActionError{
		Code:     ErrCodeUnexecutable,
		Message:  "action cannot be executed synchronously",
		Category: category,
		Action:   action,
	}
}

// NewUnknownCategoryError creates an ActionError for an unprovisioned queue name.
func NewUnknownCategoryError(category string) *ActionError {
	return &ActionError{
		Code:     ErrCodeUnknownCategory,
		Message:  "received unhandled category",
		Category: category,
	}
}

// NewSendError creates an ActionError for a delivery to a stopped queue.
func NewSendError(category, action string) *ActionError {
	return &ActionError{
		Code:     ErrCodeSendFailed,
		Message:  "queue is no longer accepting actions",
		Category: category,
		Action:   action,
	}
}

// NewDuplicateCategoryError creates an ActionError for a repeated queue name.
func NewDuplicateCategoryError(category string) *ActionError {
	return &ActionError{
		Code:     ErrCodeDuplicateCategory,
		Message:  "category provisioned more than once",
		Category: category,
	}
}

// NewEmptyActionError creates an ActionError for an envelope carrying no action.
func NewEmptyActionError(category string) *ActionError {
	return &ActionError{
		Code:     ErrCodeEmptyAction,
		Message:  "envelope carries no action",
		Category: category,
	}
}
