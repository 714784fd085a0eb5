// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/wrangler/internal/issue"
)

// ErrUnknownIssue is returned when explain is given an unknown slug.
var ErrUnknownIssue = errors.New("unknown issue")

// newExplainCommand creates the `wranglerctl explain` command.
func newExplainCommand(app *App) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "explain [issue]",
		Short: "Explain a dispatcher failure",
		Long: `Explain a failure reported by nix-rust-wrangler. Without an argument, list
every known issue.`,
		Example: `  wranglerctl explain
  wranglerctl explain recursion-limit`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			slugs := make([]string, 0, len(issue.Values()))
			for _, iss := range issue.Values() {
				slugs = append(slugs, iss.Slug())
			}
			return slugs, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, iss := range issue.Values() {
					fmt.Fprintf(app.stdout, "%-24s %s\n", CmdStyle.Render(iss.Slug()), iss.Title())
				}
				return nil
			}

			iss, ok := issue.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %q (run 'wranglerctl explain' for the list)", ErrUnknownIssue, args[0])
			}
			rendered, err := iss.Render(style)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}

	cmd.Flags().StringVar(&style, "style", "dark", "glamour style: dark, light, notty or a style file path")
	return cmd
}
