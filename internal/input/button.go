package input

import (
	"context"
	"log/slog"
	"sync/atomic"

	hook "github.com/robotn/gohook"
)

// LeftButton is the hook button number of the primary pointer button.
const LeftButton uint16 = 1

// ButtonWatcher tracks whether one pointer button is held, from global
// mouse hook events.
//
// gohook names the underlying events after libuiohook: MouseHold fires when
// a button is pressed and MouseDown when it is released.
//
// Thread-safety: Held is safe for concurrent use with Observe.
type ButtonWatcher struct {
	button uint16
	held   atomic.Bool
}

// NewButtonWatcher creates a watcher for button with the button released.
func NewButtonWatcher(button uint16) *ButtonWatcher {
	return &ButtonWatcher{button: button}
}

// Held reports the last observed state. It is a ButtonProbe.
func (w *ButtonWatcher) Held() bool {
	return w.held.Load()
}

// Observe applies one hook event. Events for other buttons are ignored.
func (w *ButtonWatcher) Observe(ev hook.Event) {
	if ev.Button != w.button {
		return
	}
	switch ev.Kind {
	case hook.MouseHold:
		w.held.Store(true)
	case hook.MouseDown:
		w.held.Store(false)
	}
}

// Watch applies events until ctx ends or events closes.
func (w *ButtonWatcher) Watch(ctx context.Context, events <-chan hook.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.Observe(ev)
		}
	}
}

// WatchButton starts the global input hook and tracks button until ctx ends.
func WatchButton(ctx context.Context, button uint16, logger *slog.Logger) *ButtonWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := NewButtonWatcher(button)
	events := hook.Start()
	logger.Debug("button hook started", "button", button)
	go func() {
		defer hook.End()
		w.Watch(ctx, events)
		logger.Debug("button hook stopped", "button", button)
	}()
	return w
}
