package input

import (
	"log/slog"

	"github.com/roach88/chatplay/internal/action"
)

// Logging is a dry-run Device: every call is logged at info level and
// nothing reaches the operating system. The button is never held.
type Logging struct {
	logger *slog.Logger
}

// NewLogging creates a Logging device. A nil logger uses slog.Default().
func NewLogging(logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{logger: logger.With("device", "log")}
}

// IsButtonHeld implements Device.
func (d *Logging) IsButtonHeld() bool { return false }

// MoveRelative implements Device.
func (d *Logging) MoveRelative(dx, dy int) {
	d.logger.Info("input", "action", action.MoveMouseRelative{DX: dx, DY: dy}.String())
}

// KeyDown implements Device.
func (d *Logging) KeyDown(code action.KeyCode) {
	d.logger.Info("input", "action", action.KeyDown{Code: code}.String())
}

// KeyUp implements Device.
func (d *Logging) KeyUp(code action.KeyCode) {
	d.logger.Info("input", "action", action.KeyUp{Code: code}.String())
}
