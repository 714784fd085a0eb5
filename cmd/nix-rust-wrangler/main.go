// SPDX-License-Identifier: MPL-2.0

// Command nix-rust-wrangler is a multi-call dispatcher for Rust toolchain
// executables. Installed under the name of a tool (cargo, rustc, ...), it
// resolves the toolchain for the current project and replaces itself with
// the real tool.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/invowk/wrangler/internal/app/dispatch"
	"github.com/invowk/wrangler/internal/config"
	"github.com/invowk/wrangler/internal/invoker"
	"github.com/invowk/wrangler/internal/logging"
)

// Version is the semantic version (set via -ldflags).
var Version = "dev"

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stderr))
}

// run returns only on failure; success replaces the process.
func run(ctx context.Context, argv []string, stderr io.Writer) int {
	cfg, cfgErr := config.LoadOrFallback(ctx, config.NewProvider(), config.LoadOptions{}, os.LookupEnv)

	logging.Setup(stderr, cfg.LogLevel)
	log.Debug("nix-rust-wrangler", "version", Version)
	if cfgErr != nil {
		log.Warn("ignoring configuration", "err", cfgErr)
	}

	d := dispatch.New(dispatch.Options{
		Mode:           cfg.Mode,
		DisableNix:     cfg.Nix.Disable,
		NixExecutable:  cfg.Nix.Executable,
		CollectionPath: cfg.Collection.Path,
	})

	plan, err := d.Run(ctx, argv)
	if err == nil {
		err = invoker.Exec(plan.HandOff)
	}

	verbose := logging.Level(cfg.LogLevel) <= log.DebugLevel
	fmt.Fprintln(stderr, logging.Prefix+": "+dispatch.Actionable(err).Format(verbose))
	return 1
}
