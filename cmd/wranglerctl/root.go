// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/invowk/wrangler/internal/config"
	"github.com/invowk/wrangler/internal/issue"
	"github.com/invowk/wrangler/internal/logging"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

func newRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "wranglerctl",
		Short: "Inspect and manage nix-rust-wrangler",
		Long: TitleStyle.Render("wranglerctl") + SubtitleStyle.Render(" - Inspect and manage nix-rust-wrangler") + `

nix-rust-wrangler is installed under the names of the Rust tools (cargo,
rustc, rust-analyzer, ...) and hands every invocation off to the toolchain
declared by the project flake or found in a toolchain collection.

` + SubtitleStyle.Render("Examples:") + `
  wranglerctl resolve cargo build      Show which cargo would run, without running it
  wranglerctl toolchains               List the toolchain collection
  wranglerctl link ~/.local/bin        Install tool links to the dispatcher
  wranglerctl explain no-toolchain     Explain a failure`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := config.LogLevelWarn
			if app.verbose {
				level = config.LogLevelDebug
			}
			logging.Setup(app.stderr, level)
		},
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/nix-rust-wrangler/config.cue)")

	root.AddCommand(
		newResolveCommand(app),
		newToolchainsCommand(app),
		newLinkCommand(app),
		newConfigCommand(app),
		newExplainCommand(app),
		newVersionCommand(app),
	)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)
	return root
}

// Execute runs the command line args and returns the process exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := newRootCommand(a)
	root.SetArgs(args)

	// fang overrides root.Version, so the version is passed as an option.
	if err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return 0
}

func (a *App) warn(msg string) {
	fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+msg)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

func cutEnv(kv string) (key, value string, ok bool) {
	return strings.Cut(kv, "=")
}
