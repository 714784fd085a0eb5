// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/invowk/wrangler/internal/invocation"
)

// ErrDispatcherNotFound is returned when the nix-rust-wrangler binary
// cannot be located.
var ErrDispatcherNotFound = errors.New("nix-rust-wrangler executable not found")

// newLinkCommand creates the `wranglerctl link` command.
func newLinkCommand(app *App) *cobra.Command {
	var (
		target string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "link <dir>",
		Short: "Create tool links to the dispatcher",
		Long: `Create one symbolic link per Rust tool name in <dir>, each pointing to the
nix-rust-wrangler executable. Put <dir> early on PATH to route every tool
through the dispatcher.`,
		Example: `  wranglerctl link ~/.local/bin
  wranglerctl link --force --target /opt/wrangler/bin/nix-rust-wrangler ./bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				target = app.dispatcherPath()
			}
			if target == "" {
				return ErrDispatcherNotFound
			}
			return linkTools(app, args[0], target, force)
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "dispatcher executable the links point to")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace existing files")
	return cmd
}

func linkTools(app *App, dir, target string, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create link directory: %w", err)
	}

	for _, tool := range invocation.ProxiedTools() {
		link := filepath.Join(dir, tool.ExecutableName())

		if existing, err := os.Readlink(link); err == nil && existing == target {
			fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("="), link)
			continue
		}

		if _, err := os.Lstat(link); err == nil {
			if !force {
				app.warn(fmt.Sprintf("%s exists, skipping (use --force to replace)", link))
				continue
			}
			if err := os.Remove(link); err != nil {
				return fmt.Errorf("replace %s: %w", link, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("inspect %s: %w", link, err)
		}

		if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("link %s: %w", link, err)
		}
		fmt.Fprintf(app.stdout, "%s %s -> %s\n", SuccessStyle.Render("✓"), link, target)
	}
	return nil
}

// dispatcherPath locates nix-rust-wrangler next to this executable, then on
// PATH. It returns "" when neither exists.
func (a *App) dispatcherPath() string {
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), invocation.WranglerName)
		if info, err := os.Stat(sibling); err == nil && info.Mode().IsRegular() {
			return sibling
		}
	}
	if path, err := exec.LookPath(invocation.WranglerName); err == nil {
		return path
	}
	return ""
}
