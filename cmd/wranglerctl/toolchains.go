// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/wrangler/internal/collection"
	"github.com/invowk/wrangler/internal/invocation"
	"github.com/invowk/wrangler/internal/issue"
)

// ErrNoCollection is returned when no toolchain collection is configured.
var ErrNoCollection = errors.New("no toolchain collection configured")

// newToolchainsCommand creates the `wranglerctl toolchains` command.
func newToolchainsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toolchains",
		Short: "List the toolchains of the collection",
		Long: `List the toolchains of the collection named by ` + collection.EnvCollection + `
(or collection.path in the configuration), with the tools each provides. The
toolchain selected when no override is given is marked with '*'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.loadConfig(cmd.Context(), app.configPath, app.verbose)

			dir := cfg.Collection.Path
			if dir == "" {
				dir, _ = app.lookupEnv(collection.EnvCollection)
			}
			if dir == "" {
				return issue.NewErrorContext().
					WithOperation("list toolchains").
					WithSuggestion("Set " + collection.EnvCollection + " to a toolchain collection").
					WithIssue(issue.NoToolchainSourceId).
					Wrap(ErrNoCollection).
					BuildError()
			}

			coll, err := collection.FromDirectory(dir)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("load toolchain collection").
					WithResource(dir).
					WithSuggestion("Check that " + collection.MetaFileName + " exists and contains valid JSON").
					WithIssue(issue.CollectionLoadFailedId).
					Wrap(err).
					BuildError()
			}
			return listToolchains(app, coll)
		},
	}
}

func listToolchains(app *App, coll *collection.Collection) error {
	names, err := coll.Toolchains()
	if err != nil {
		return err
	}

	defaultDir, _ := coll.DefaultToolchainDir()

	fmt.Fprintln(app.stdout, TitleStyle.Render("Toolchains in "+coll.Dir()))
	if host := coll.Meta().HostPlatform; host != "" {
		fmt.Fprintf(app.stdout, "%s: %s\n", CmdStyle.Render("host platform"), host)
	}
	fmt.Fprintln(app.stdout)

	if len(names) == 0 {
		fmt.Fprintf(app.stdout, "  %s\n", SubtitleStyle.Render("(none installed)"))
		return nil
	}

	for _, name := range names {
		dir, err := coll.ToolchainDir(name)
		if err != nil {
			return err
		}
		marker := " "
		if dir == defaultDir {
			marker = SuccessStyle.Render("*")
		}
		fmt.Fprintf(app.stdout, "%s %s  %s\n", marker, CmdStyle.Render(name), SubtitleStyle.Render(strings.Join(providedTools(dir), " ")))
	}
	return nil
}

// providedTools lists the known tools present in dir/bin.
func providedTools(dir string) []string {
	var tools []string
	for _, tool := range invocation.ProxiedTools() {
		if info, err := os.Stat(filepath.Join(dir, "bin", tool.ExecutableName())); err == nil && !info.IsDir() {
			tools = append(tools, tool.Name())
		}
	}
	return tools
}
