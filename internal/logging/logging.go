// SPDX-License-Identifier: MPL-2.0

// Package logging configures the charmbracelet/log logger shared by both
// binaries. Diagnostics always go to stderr so they never mix with the
// output of the tool being dispatched to.
package logging

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/invowk/wrangler/internal/config"
)

// Prefix is printed in front of every log line.
const Prefix = "nix-rust-wrangler"

var levels = map[config.LogLevel]log.Level{
	// charmbracelet/log has no trace level; trace output is logged at debug.
	config.LogLevelTrace: log.DebugLevel,
	config.LogLevelDebug: log.DebugLevel,
	config.LogLevelInfo:  log.InfoLevel,
	config.LogLevelWarn:  log.WarnLevel,
	config.LogLevelError: log.ErrorLevel,
}

// Level maps a configured level to the logger's. Unknown levels map to error.
func Level(l config.LogLevel) log.Level {
	if lvl, ok := levels[l]; ok {
		return lvl
	}
	return log.ErrorLevel
}

// New returns a logger writing to w at level.
func New(w io.Writer, level config.LogLevel) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		Level:           Level(level),
		ReportTimestamp: level == config.LogLevelTrace,
	})
}

// Setup installs a logger as the package default used by log.Debug and
// friends, and returns it.
func Setup(w io.Writer, level config.LogLevel) *log.Logger {
	logger := New(w, level)
	log.SetDefault(logger)
	return logger
}
