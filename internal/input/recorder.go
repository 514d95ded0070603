package input

import (
	"sync"
	"sync/atomic"

	"github.com/roach88/chatplay/internal/action"
)

// Recorder is an in-memory Device. It records every leaf it is asked to
// perform and reports a button state set by the caller.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []action.Action
	held  atomic.Bool
	polls atomic.Int64
}

// NewRecorder creates a Recorder with the button released.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetButtonHeld changes what IsButtonHeld reports.
func (r *Recorder) SetButtonHeld(held bool) {
	r.held.Store(held)
}

// IsButtonHeld implements Device.
func (r *Recorder) IsButtonHeld() bool {
	r.polls.Add(1)
	return r.held.Load()
}

// MoveRelative implements Device.
func (r *Recorder) MoveRelative(dx, dy int) {
	r.record(action.MoveMouseRelative{DX: dx, DY: dy})
}

// KeyDown implements Device.
func (r *Recorder) KeyDown(code action.KeyCode) {
	r.record(action.KeyDown{Code: code})
}

// KeyUp implements Device.
func (r *Recorder) KeyUp(code action.KeyCode) {
	r.record(action.KeyUp{Code: code})
}

func (r *Recorder) record(a action.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, a)
}

// Calls returns a copy of the recorded leaves in call order.
func (r *Recorder) Calls() []action.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]action.Action, len(r.calls))
	copy(out, r.calls)
	return out
}

// Polls returns how many times IsButtonHeld was called.
func (r *Recorder) Polls() int64 {
	return r.polls.Load()
}

// Reset forgets recorded calls and poll counts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.polls.Store(0)
}
