// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"

	"github.com/invowk/wrangler/internal/app/dispatch"
)

// newResolveCommand creates the `wranglerctl resolve` command.
func newResolveCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <tool> [+toolchain] [args...]",
		Short: "Show how a tool invocation would be dispatched",
		Long: `Resolve a tool invocation exactly like nix-rust-wrangler would when started
under the tool's name, and print the resulting hand-off instead of running it.

Resolving through the flake may build the toolchain.`,
		Example: `  wranglerctl resolve cargo build
  wranglerctl resolve rustc +nightly --version`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, app, args)
		},
	}
	// Everything after the tool belongs to the tool.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func runResolve(cmd *cobra.Command, app *App, args []string) error {
	ctx := cmd.Context()
	cfg := app.loadConfig(ctx, app.configPath, app.verbose)

	d := dispatch.New(dispatch.Options{
		Mode:           cfg.Mode,
		DisableNix:     cfg.Nix.Disable,
		NixExecutable:  cfg.Nix.Executable,
		CollectionPath: cfg.Collection.Path,
	}, dispatch.WithEnviron(app.Environ), dispatch.WithSelf(app.dispatcherPath()))

	plan, err := d.Run(ctx, args)
	if err != nil {
		return dispatch.Actionable(err)
	}

	renderPlan(app.stdout, plan, app.Environ)
	return nil
}

// renderPlan prints the hand-off with shell-quoted arguments and the
// environment variables it adds or changes.
func renderPlan(w io.Writer, plan dispatch.Plan, environ []string) {
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("source"), SuccessStyle.Render(string(plan.Source)))
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("tool"), plan.Invocation.Tool().Name())
	if name, ok := plan.Invocation.ToolchainOverride().Name(); ok {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("toolchain"), name)
	}
	if dir := plan.Invoker.ToolchainDir(); dir != "" {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("toolchain dir"), dir)
	}
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("program"), plan.HandOff.Path)
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("argv"), quoteArgs(plan.HandOff.Argv))

	delta := envDelta(environ, plan.HandOff.Env)
	if len(delta) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", CmdStyle.Render("environment"))
	for _, kv := range delta {
		fmt.Fprintf(w, "  %s\n", kv)
	}
}

// quoteArgs renders argv as a single shell word list.
func quoteArgs(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", arg)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}

// envDelta returns the quoted KEY=VALUE entries of after that are absent
// from or different in before, sorted by key.
func envDelta(before, after []string) []string {
	prev := make(map[string]string, len(before))
	for _, kv := range before {
		if k, v, ok := cutEnv(kv); ok {
			prev[k] = v
		}
	}

	var delta []string
	for _, kv := range after {
		k, v, ok := cutEnv(kv)
		if !ok {
			continue
		}
		if old, seen := prev[k]; seen && old == v {
			continue
		}
		q, err := syntax.Quote(v, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", v)
		}
		delta = append(delta, k+"="+q)
	}
	slices.Sort(delta)
	return delta
}
