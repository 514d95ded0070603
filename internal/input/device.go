// Package input provides the devices the engine drives.
//
// A Device is called synchronously from a queue runner while that queue's
// buffer lock is held. Devices are shared by every category; implementations
// must tolerate calls from several goroutines.
package input

import "github.com/roach88/chatplay/internal/action"

// Device performs key and pointer side effects.
type Device interface {
	// IsButtonHeld reports whether the designated pointer button is down.
	IsButtonHeld() bool
	// MoveRelative moves the pointer by (dx, dy).
	MoveRelative(dx, dy int)
	// KeyDown presses the key with the given raw code.
	KeyDown(code action.KeyCode)
	// KeyUp releases the key with the given raw code.
	KeyUp(code action.KeyCode)
}

// Perform applies a leaf action to d. It returns false, doing nothing, for
// actions that are not leaves.
func Perform(d Device, a action.Action) bool {
	switch leaf := a.(type) {
	case action.KeyDown:
		d.KeyDown(leaf.Code)
	case action.KeyUp:
		d.KeyUp(leaf.Code)
	case action.MoveMouseRelative:
		d.MoveRelative(leaf.DX, leaf.DY)
	default:
		return false
	}
	return true
}
