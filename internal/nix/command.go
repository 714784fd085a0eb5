// SPDX-License-Identifier: MPL-2.0

package nix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/wrangler/pkg/platform"
)

const (
	// EnvExecutable names an explicit nix executable.
	EnvExecutable = "NIX_RUST_WRANGLER_NIX"
	// EnvDisable disables the Nix source when non-empty.
	EnvDisable = "NIX_RUST_WRANGLER_DISABLE_NIX"

	defaultExecutable = "nix"
	flakesFeature     = "flakes"
)

// ErrNixNotFound is returned when no nix executable can be located.
var ErrNixNotFound = errors.New("nix executable not found")

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// It allows tests to substitute a fake process.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// LookPathFunc has the signature of exec.LookPath.
	LookPathFunc func(file string) (string, error)

	// Command is a located nix executable together with the outcome of the
	// flake support probe.
	Command struct {
		executable    string
		usable        bool
		flakesEnabled bool
		hostPrefix    []string
		execCommand   ExecCommandFunc
	}

	// Option configures Find.
	Option func(*finder)

	finder struct {
		executable  string
		lookPath    LookPathFunc
		execCommand ExecCommandFunc
		hostPrefix  []string
	}
)

// WithExecutable uses path instead of searching for "nix".
func WithExecutable(path string) Option {
	return func(f *finder) { f.executable = path }
}

// WithLookPath overrides the search path lookup.
func WithLookPath(fn LookPathFunc) Option {
	return func(f *finder) { f.lookPath = fn }
}

// WithExecCommand overrides subprocess creation.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(f *finder) { f.execCommand = fn }
}

// WithHostPrefix sets the argv prefix that escapes a sandbox, such as
// "flatpak-spawn --host". Find defaults to the detected sandbox.
func WithHostPrefix(prefix []string) Option {
	return func(f *finder) { f.hostPrefix = prefix }
}

// Find locates nix and probes "nix config show experimental-features".
// A nix whose probe fails is still returned but reports Usable() == false.
func Find(ctx context.Context, opts ...Option) (*Command, error) {
	f := finder{
		lookPath:    exec.LookPath,
		execCommand: exec.CommandContext,
		hostPrefix:  platform.HostSpawnPrefix(platform.DetectSandbox()),
	}
	for _, opt := range opts {
		opt(&f)
	}

	executable := f.executable
	switch {
	case executable != "":
	case len(f.hostPrefix) > 0:
		// The host resolves nix on its own search path.
		executable = defaultExecutable
	default:
		path, err := f.lookPath(defaultExecutable)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNixNotFound, err)
		}
		executable = path
	}

	c := &Command{
		executable:  executable,
		hostPrefix:  slices.Clone(f.hostPrefix),
		execCommand: f.execCommand,
	}
	c.probe(ctx)
	return c, nil
}

// NewCommand returns a Command that is assumed usable with flakes enabled.
// It skips the probe and is meant for callers that already know.
func NewCommand(executable string, execCommand ExecCommandFunc) *Command {
	if execCommand == nil {
		execCommand = exec.CommandContext
	}
	return &Command{executable: executable, usable: true, flakesEnabled: true, execCommand: execCommand}
}

// probe fails softly: nix without the nix-command feature cannot run
// "nix config" at all, which also means flakes are unavailable.
func (c *Command) probe(ctx context.Context) {
	args := []string{"config", "show", "experimental-features"}
	log.Debug("probing nix", "cmd", c.executable, "args", args)

	var stdout, stderr bytes.Buffer
	cmd := c.command(ctx, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	log.Debug("nix probe finished", "err", err, "stdout", stdout.String(), "stderr", stderr.String())
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			log.Warn("failed to invoke nix config show experimental-features", "err", err)
		}
		return
	}

	c.usable = true
	c.flakesEnabled = slices.Contains(strings.Fields(stdout.String()), flakesFeature)
}

// Executable returns the nix executable path.
func (c *Command) Executable() string { return c.executable }

// Usable reports whether the probe succeeded.
func (c *Command) Usable() bool { return c.usable }

// FlakesEnabled reports whether the flakes experimental feature is on.
func (c *Command) FlakesEnabled() bool { return c.flakesEnabled }

// Ready reports whether nix can be used to evaluate flakes.
func (c *Command) Ready() bool { return c.usable && c.flakesEnabled }

// HostPrefix returns the sandbox escape prepended to every nix argv, or
// nil when nix runs directly.
func (c *Command) HostPrefix() []string { return slices.Clone(c.hostPrefix) }

// Argv returns the full argument vector for running nix with args,
// including any sandbox escape prefix.
func (c *Command) Argv(args ...string) []string {
	argv := make([]string, 0, len(c.hostPrefix)+1+len(args))
	argv = append(argv, c.hostPrefix...)
	argv = append(argv, c.executable)
	return append(argv, args...)
}

func (c *Command) command(ctx context.Context, args ...string) *exec.Cmd {
	argv := c.Argv(args...)
	return c.execCommand(ctx, argv[0], argv[1:]...)
}
