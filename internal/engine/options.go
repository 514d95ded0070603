package engine

import (
	"log/slog"
	"time"
)

const (
	// DefaultStepInterval is how long a runner sleeps after a step.
	DefaultStepInterval = 10 * time.Millisecond

	// DefaultPausedInterval is how long a runner sleeps while its head is paused.
	DefaultPausedInterval = 100 * time.Millisecond

	// DefaultInboundCapacity bounds each category's inbound channel.
	DefaultInboundCapacity = 100
)

// Options configures interpreters, queues and the scheduler.
// The zero value is usable; withDefaults fills in every unset field.
type Options struct {
	Clock    Clock
	Observer Observer
	Logger   *slog.Logger

	StepInterval    time.Duration
	PausedInterval  time.Duration
	InboundCapacity int
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = RealClock{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.StepInterval <= 0 {
		o.StepInterval = DefaultStepInterval
	}
	if o.PausedInterval <= 0 {
		o.PausedInterval = DefaultPausedInterval
	}
	if o.InboundCapacity <= 0 {
		o.InboundCapacity = DefaultInboundCapacity
	}
	return o
}
