// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ModePermissive falls back to the ambient PATH when no toolchain
	// collection is available.
	ModePermissive Mode = "permissive"
	// ModeStrict treats a missing toolchain collection as fatal.
	ModeStrict Mode = "strict"

	// LogLevelTrace is the most verbose level.
	LogLevelTrace LogLevel = "trace"
	// LogLevelDebug logs resolution decisions.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs the source that served the invocation.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs recoverable misconfiguration.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError only logs fatal problems.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidMode is returned when a Mode value is not recognized.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Mode selects the behaviour when no toolchain collection is available.
	Mode string

	// LogLevel is the dispatcher's log verbosity.
	LogLevel string

	// Config holds the dispatcher configuration.
	Config struct {
		Mode       Mode             `json:"mode" toml:"mode" mapstructure:"mode"`
		LogLevel   LogLevel         `json:"log_level" toml:"log_level" mapstructure:"log_level"`
		Nix        NixConfig        `json:"nix" toml:"nix" mapstructure:"nix"`
		Collection CollectionConfig `json:"collection" toml:"collection" mapstructure:"collection"`
	}

	// NixConfig configures the flake source.
	NixConfig struct {
		Disable    bool   `json:"disable" toml:"disable" mapstructure:"disable"`
		Executable string `json:"executable,omitempty" toml:"executable,omitempty" mapstructure:"executable"`
	}

	// CollectionConfig configures the toolchain collection source.
	CollectionConfig struct {
		Path string `json:"path,omitempty" toml:"path,omitempty" mapstructure:"path"`
	}

	// InvalidConfigError collects every field validation failure.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Mode:     ModePermissive,
		LogLevel: LogLevelError,
	}
}

// Validate returns ErrInvalidMode for unknown modes.
func (m Mode) Validate() error {
	switch m {
	case ModePermissive, ModeStrict:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected permissive or strict)", ErrInvalidMode, string(m))
	}
}

// String returns the string representation of the Mode.
func (m Mode) String() string { return string(m) }

// ParseLogLevel normalizes s and validates it.
func ParseLogLevel(s string) (LogLevel, error) {
	l := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if err := l.Validate(); err != nil {
		return "", err
	}
	return l, nil
}

// Validate returns ErrInvalidLogLevel for unknown levels.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, string(l))
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Validate checks every field and returns an *InvalidConfigError.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Mode.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.LogLevel.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
