// Package config loads and watches the host program's configuration.
//
// Files may be JSON or YAML; YAML is coerced to JSON so both formats go
// through the same strict decoder (unknown fields are rejected). Durations
// are Go duration strings (e.g. "10ms", "250ms").
package config

import (
	"fmt"
	"strings"
	"time"

	"buttonexec/pkg/executor"
	"buttonexec/pkg/logx"
)

type Config struct {
	Button  ButtonConfig  `json:"button"`
	Poll    PollConfig    `json:"poll,omitempty"`
	Logging LoggingConfig `json:"logging,omitempty"`
}

// ButtonConfig describes the monitored input.
type ButtonConfig struct {
	// Pin is the periph.io pin name, e.g. "GPIO20".
	Pin string `json:"pin"`

	// PressedLevel is "high" or "low". Default "high"; pull-up wiring
	// usually wants "low".
	PressedLevel string `json:"pressed_level,omitempty"`

	// Pull is "up", "down" or "none". Default "none".
	Pull string `json:"pull,omitempty"`

	// Debounce is the sampling interval as a Go duration string.
	// Default "10ms"; values below 1ms are rejected.
	Debounce string `json:"debounce,omitempty"`
}

// PollConfig controls the host's busy-poll loop.
type PollConfig struct {
	// MaxRate caps poll calls per second so the loop does not spin a core
	// flat out. Default 2000. Debounce and callback fidelity degrade if
	// this is set below 1/debounce.
	MaxRate int `json:"max_rate,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"`
	Console *bool      `json:"console,omitempty"` // default true
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

const (
	defaultDebounce = 10 * time.Millisecond
	defaultMaxRate  = 2000
	minDebounce     = time.Millisecond
)

// Validate checks the whole config. It is called before every commit, both
// on initial load and on watched reloads.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Button.Pin) == "" {
		return fmt.Errorf("button.pin is required")
	}
	if _, err := c.Button.Level(); err != nil {
		return err
	}
	if _, err := c.Button.DebounceInterval(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(c.Button.Pull)) {
	case "", "none", "float", "up", "down":
	default:
		return fmt.Errorf("button.pull: unknown value %q (want up, down or none)", c.Button.Pull)
	}
	if c.Poll.MaxRate < 0 {
		return fmt.Errorf("poll.max_rate must be >= 0")
	}
	return nil
}

// Level parses the configured pressed level.
func (b ButtonConfig) Level() (executor.Level, error) {
	switch strings.ToLower(strings.TrimSpace(b.PressedLevel)) {
	case "", "high":
		return executor.High, nil
	case "low":
		return executor.Low, nil
	default:
		return executor.Low, fmt.Errorf("button.pressed_level: unknown value %q (want high or low)", b.PressedLevel)
	}
}

// DebounceInterval parses the sampling interval, applying the default.
func (b ButtonConfig) DebounceInterval() (time.Duration, error) {
	d, err := ParseDurationOrDefault("button.debounce", b.Debounce, defaultDebounce)
	if err != nil {
		return 0, err
	}
	if d < minDebounce {
		return 0, fmt.Errorf("button.debounce: %s is below the %s minimum", d, minDebounce)
	}
	return d, nil
}

// Rate returns the poll-rate cap, applying the default.
func (p PollConfig) Rate() int {
	if p.MaxRate > 0 {
		return p.MaxRate
	}
	return defaultMaxRate
}

// Logx maps the logging section onto the logx service config.
func (l LoggingConfig) Logx() logx.Config {
	console := true
	if l.Console != nil {
		console = *l.Console
	}
	return logx.Config{
		Level:   l.Level,
		Console: console,
		File: logx.FileConfig{
			Enabled: l.File.Enabled,
			Path:    l.File.Path,
		},
	}
}

// ParseDurationField parses a Go duration string, treating the empty string
// as zero. path names the field for error messages.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault is ParseDurationField with a fallback for empty or
// zero values.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
