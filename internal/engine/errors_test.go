package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionError_Message(t *testing.T) {
	err := NewNestingError("camera", "w10")
	assert.Equal(t, "WRONG_NESTING: wrong action nesting: atomic sequences may only contain key and mouse actions (category=camera, action=w10)", err.Error())

	err = NewUnknownCategoryError("ghost")
	assert.Equal(t, "UNKNOWN_CATEGORY: received unhandled category (category=ghost)", err.Error())

	err = &ActionError{Code: ErrCodeSendFailed, Message: "gone"}
	assert.Equal(t, "SEND_FAILED: gone", err.Error())
}

func TestHasCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("routing: %w", NewUnknownCategoryError("ghost"))
	assert.True(t, IsUnknownCategoryError(err))
	assert.False(t, IsSendError(err))
}

func TestHasCode_Joined(t *testing.T) {
	err := errors.Join(
		NewUnexecutableError("a", "w1"),
		NewNestingError("a", "w2"),
	)
	assert.True(t, IsNestingError(err))
	assert.True(t, HasCode(err, ErrCodeUnexecutable))
	assert.False(t, IsUnknownCategoryError(err))
}

func TestHasCode_Nil(t *testing.T) {
	assert.False(t, IsNestingError(nil))
}
