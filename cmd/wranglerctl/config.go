// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/invowk/wrangler/internal/config"
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

// newConfigCommand creates the `wranglerctl config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect nix-rust-wrangler configuration",
		Long: `Inspect nix-rust-wrangler configuration.

Configuration is stored in:
  - Linux: ~/.config/nix-rust-wrangler/config.cue
  - macOS: ~/Library/Application Support/nix-rust-wrangler/config.cue

` + config.EnvConfigPath + ` names another file. Environment variables such as
` + config.EnvMode + ` and ` + config.EnvLogLevel + ` override the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.loadConfig(cmd.Context(), app.configPath, app.verbose)
			out, err := renderConfig(cfg, format)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
	showCmd.Flags().StringVar(&format, "format", "cue", "output format: cue, json or toml")

	cfgCmd.AddCommand(showCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, exists, err := config.Locate(config.LoadOptions{ConfigFilePath: app.configPath})
			if err != nil {
				return err
			}
			if _, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: app.configPath}); err != nil {
				fmt.Fprintln(app.stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, app.verbose))
				return &ExitError{Code: 1, Err: err}
			}
			if !exists {
				fmt.Fprintf(app.stdout, "%s no config file at %s, using defaults\n", SuccessStyle.Render("✓"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s %s is valid\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, exists, err := config.Locate(config.LoadOptions{ConfigFilePath: app.configPath})
			if err != nil {
				return err
			}
			state := SubtitleStyle.Render("(not present, using defaults)")
			if exists {
				state = SuccessStyle.Render("(present)")
			}
			fmt.Fprintf(app.stdout, "%s %s\n", path, state)
			return nil
		},
	})

	return cfgCmd
}

func renderConfig(cfg *config.Config, format string) (string, error) {
	switch format {
	case "cue":
		return config.GenerateCUE(cfg), nil
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
