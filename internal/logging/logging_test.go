// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/invowk/wrangler/internal/config"
)

func TestLevel(t *testing.T) {
	t.Parallel()

	tests := map[config.LogLevel]log.Level{
		config.LogLevelTrace: log.DebugLevel,
		config.LogLevelDebug: log.DebugLevel,
		config.LogLevelInfo:  log.InfoLevel,
		config.LogLevelWarn:  log.WarnLevel,
		config.LogLevelError: log.ErrorLevel,
		"bogus":              log.ErrorLevel,
	}
	for in, want := range tests {
		if got := Level(in); got != want {
			t.Errorf("Level(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, config.LogLevelWarn)
	logger.Info("hidden")
	logger.Warn("shown", "toolchain", "nightly")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	for _, want := range []string{Prefix, "shown", "toolchain=nightly"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
