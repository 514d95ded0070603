package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings are process-level options read from the environment.
// Command-line flags override them.
type Settings struct {
	ConfigPath      string        `env:"CHATPLAY_CONFIG"           envDefault:"config.cue"`
	Database        string        `env:"CHATPLAY_DB"`
	Input           string        `env:"CHATPLAY_INPUT"            envDefault:"log"`
	LogLevel        string        `env:"CHATPLAY_LOG_LEVEL"        envDefault:"info"`
	StepInterval    time.Duration `env:"CHATPLAY_STEP_INTERVAL"    envDefault:"10ms"`
	PausedInterval  time.Duration `env:"CHATPLAY_PAUSED_INTERVAL"  envDefault:"100ms"`
	InboundCapacity int           `env:"CHATPLAY_INBOUND_CAPACITY" envDefault:"100"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if s.Input != "log" && s.Input != "robot" {
		return Settings{}, fmt.Errorf("parse env: CHATPLAY_INPUT must be log or robot, got %q", s.Input)
	}
	return s, nil
}

// Level maps LogLevel onto a slog level. Unknown names mean info.
func (s Settings) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
