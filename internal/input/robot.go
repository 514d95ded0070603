package input

import (
	"log/slog"

	"github.com/go-vgo/robotgo"

	"github.com/roach88/chatplay/internal/action"
)

// ButtonProbe reports whether the designated pointer button is held.
type ButtonProbe func() bool

// Robot injects input into the desktop session through robotgo.
//
// IsButtonHeld defers to the configured probe, normally a ButtonWatcher.
// Without one, the button is never considered held.
type Robot struct {
	probe  ButtonProbe
	logger *slog.Logger
}

// NewRobot creates a Robot device. probe and logger may be nil.
func NewRobot(probe ButtonProbe, logger *slog.Logger) *Robot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Robot{probe: probe, logger: logger.With("device", "robot")}
}

// IsButtonHeld implements Device.
func (r *Robot) IsButtonHeld() bool {
	if r.probe == nil {
		return false
	}
	return r.probe()
}

// MoveRelative implements Device.
func (r *Robot) MoveRelative(dx, dy int) {
	robotgo.MoveRelative(dx, dy)
}

// KeyDown implements Device.
func (r *Robot) KeyDown(code action.KeyCode) {
	r.toggle(code, "down")
}

// KeyUp implements Device.
func (r *Robot) KeyUp(code action.KeyCode) {
	r.toggle(code, "up")
}

func (r *Robot) toggle(code action.KeyCode, direction string) {
	name, ok := KeyName(code)
	if !ok {
		r.logger.Error("no key name for code", "code", code, "direction", direction)
		return
	}
	if err := robotgo.KeyToggle(name, direction); err != nil {
		r.logger.Error("key toggle failed", "key", name, "direction", direction, "error", err)
	}
}
