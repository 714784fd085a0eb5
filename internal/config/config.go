// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
	"mvdan.cc/sh/v3/shell"

	"github.com/invowk/wrangler/internal/collection"
	"github.com/invowk/wrangler/internal/issue"
	"github.com/invowk/wrangler/internal/nix"
	"github.com/invowk/wrangler/pkg/platform"
)

const (
	// AppName is the application name.
	AppName = "nix-rust-wrangler"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// EnvConfigPath names an explicit config file.
	EnvConfigPath = "NIX_RUST_WRANGLER_CONFIG"
	// EnvMode overrides the mode key.
	EnvMode = "NIX_RUST_WRANGLER_MODE"
	// EnvLogLevel overrides the log_level key.
	EnvLogLevel = "NIX_RUST_WRANGLER_LOG"

	maxFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"mode":            EnvMode,
	"log_level":       EnvLogLevel,
	"nix.executable":  nix.EnvExecutable,
	"collection.path": collection.EnvCollection,
}

// ConfigDir returns the configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Locate returns the config file that Load would read, and whether it exists.
func Locate(opts LoadOptions) (string, bool, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, fileExists(opts.ConfigFilePath), nil
	}
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, fileExists(path), nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", false, err
		}
		cfgDir = dir
	}
	path := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	return path, fileExists(path), nil
}

// loadWithOptions performs option-driven config loading. An explicitly named
// file must exist; the default location is optional.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("mode", defaults.Mode)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("nix.disable", defaults.Nix.Disable)
	v.SetDefault("nix.executable", defaults.Nix.Executable)
	v.SetDefault("collection.path", defaults.Collection.Path)

	if !opts.IgnoreEnv {
		for key, env := range envBindings {
			if err := v.BindEnv(key, env); err != nil {
				return nil, "", fmt.Errorf("bind %s: %w", env, err)
			}
		}
	}

	path, exists, err := Locate(opts)
	if err != nil {
		return nil, "", err
	}
	explicit := opts.ConfigFilePath != "" || os.Getenv(EnvConfigPath) != ""

	resolvedPath := ""
	switch {
	case exists:
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
		resolvedPath = path
	case explicit:
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Use 'wranglerctl config show' to see the default configuration").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(fmt.Errorf("config file not found: %s", path)).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if !opts.IgnoreEnv {
		if disable, ok := os.LookupEnv(nix.EnvDisable); ok && disable != "" {
			cfg.Nix.Disable = true
		}
	}
	cfg.normalize()

	if err := cfg.expandPaths(os.Getenv); err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// normalize folds case and surrounding space out of the enumerated keys,
// so "DEBUG" and " Strict" are accepted.
func (c *Config) normalize() {
	c.Mode = Mode(strings.ToLower(strings.TrimSpace(string(c.Mode))))
	c.LogLevel = LogLevel(strings.ToLower(strings.TrimSpace(string(c.LogLevel))))
}

// expandPaths expands $VARIABLES in path-valued keys.
func (c *Config) expandPaths(env func(string) string) error {
	for _, field := range []*string{&c.Nix.Executable, &c.Collection.Path} {
		if *field == "" {
			continue
		}
		expanded, err := expandPath(*field, env)
		if err != nil {
			return err
		}
		*field = expanded
	}
	return nil
}

func expandPath(path string, env func(string) string) (string, error) {
	expanded, err := shell.Expand(path, env)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return expanded, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	// Unify with schema to validate against #Config definition
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// formatCUEError renders every CUE error as "<path>: <field>: <message>".
func formatCUEError(err error, filePath string) error {
	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(cueErrs))
	for _, e := range cueErrs {
		field := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()
		if field != "" && strings.HasPrefix(msg, field) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, field), ":"))
		}
		if field != "" {
			msg = field + ": " + msg
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return errors.New(filePath + ": " + lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// nix-rust-wrangler configuration\n\n")
	fmt.Fprintf(&sb, "mode: %q\n", cfg.Mode)
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)

	sb.WriteString("\nnix: {\n")
	fmt.Fprintf(&sb, "\tdisable: %v\n", cfg.Nix.Disable)
	if cfg.Nix.Executable != "" {
		fmt.Fprintf(&sb, "\texecutable: %q\n", cfg.Nix.Executable)
	}
	sb.WriteString("}\n")

	if cfg.Collection.Path != "" {
		sb.WriteString("\ncollection: {\n")
		fmt.Fprintf(&sb, "\tpath: %q\n", cfg.Collection.Path)
		sb.WriteString("}\n")
	}

	return sb.String()
}
