// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/invowk/wrangler/internal/config"
)

// staticConfig is a ConfigProvider returning a fixed result.
type staticConfig struct {
	cfg *config.Config
	err error
}

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	return s.cfg, s.err
}

// runCommand executes args against a fresh root command and returns the
// captured streams.
func runCommand(t *testing.T, cfg *config.Config, environ []string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if environ == nil {
		environ = []string{}
	}
	app := NewApp(Dependencies{
		Config:  staticConfig{cfg: cfg},
		Environ: environ,
		Stdout:  &out,
		Stderr:  &errOut,
	})

	root := newRootCommand(app)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func disabledNix() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Nix.Disable = true
	return cfg
}
