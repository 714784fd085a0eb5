// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"io"
	"os"

	"github.com/invowk/wrangler/internal/config"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and writes through its streams.
	App struct {
		Config  ConfigProvider
		Environ []string
		stdout  io.Writer
		stderr  io.Writer

		// set by the root command's persistent flags
		configPath string
		verbose    bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		Environ []string
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Environ == nil {
		deps.Environ = os.Environ()
	}

	return &App{
		Config:  deps.Config,
		Environ: deps.Environ,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
}

// lookupEnv looks key up in the App's environment.
func (a *App) lookupEnv(key string) (string, bool) {
	for i := len(a.Environ) - 1; i >= 0; i-- {
		if k, v, ok := cutEnv(a.Environ[i]); ok && k == key {
			return v, true
		}
	}
	return "", false
}

// loadConfig loads the configuration, falling back to defaults with a
// warning just like the dispatcher does.
func (a *App) loadConfig(ctx context.Context, path string, verbose bool) *config.Config {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: path})
	if err != nil {
		a.warn(formatErrorForDisplay(err, verbose))
		return config.DefaultConfig()
	}
	return cfg
}
