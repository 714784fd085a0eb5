// SPDX-License-Identifier: MPL-2.0

package nix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"

	"github.com/charmbracelet/log"
)

var (
	// ErrEvalFailed is the sentinel wrapped by EvalFailedError.
	ErrEvalFailed = errors.New("nix command failed")
	// ErrParse is the sentinel wrapped by ParseError.
	ErrParse = errors.New("failed to parse nix output")
)

type (
	// EvalFailedError is returned when nix exits non-zero. Both output
	// streams are kept verbatim for diagnostics.
	EvalFailedError struct {
		Args   []string
		Status int
		Stdout string
		Stderr string
	}

	// ParseError is returned when nix output is not the expected JSON.
	ParseError struct {
		Output []byte
		Err    error
	}

	// BuildOutput is one element of "nix build --json" output.
	BuildOutput struct {
		DrvPath string            `json:"drvPath"`
		Outputs map[string]string `json:"outputs"`
	}
)

// Error implements the error interface.
func (e *EvalFailedError) Error() string {
	return fmt.Sprintf("nix command failed with status %d\nstdout: %s\nstderr: %s", e.Status, e.Stdout, e.Stderr)
}

// Unwrap returns ErrEvalFailed for errors.Is() compatibility.
func (e *EvalFailedError) Unwrap() error { return ErrEvalFailed }

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse nix output: %v", e.Err)
}

// Unwrap returns both ErrParse and the decoder error.
func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// Eval runs "nix eval --json <flake>#<attr> --apply <expr>" and decodes
// the result into out.
func (c *Command) Eval(ctx context.Context, flake Flake, attr, expr string, out any) error {
	installable := flake.Installable(attr)
	log.Debug("evaluating flake expression", "installable", installable)

	stdout, err := c.run(ctx, "eval", "--json", installable, "--apply", expr)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(stdout, out); err != nil {
		return &ParseError{Output: stdout, Err: err}
	}
	return nil
}

// Build runs "nix build --no-link --json <flake>#<attr>" and returns the
// derivations built, normally exactly one.
func (c *Command) Build(ctx context.Context, flake Flake, attr string) ([]BuildOutput, error) {
	installable := flake.Installable(attr)
	log.Debug("building flake attribute", "installable", installable)

	stdout, err := c.run(ctx, "build", "--no-link", "--json", installable)
	if err != nil {
		return nil, err
	}
	var outputs []BuildOutput
	if err := json.Unmarshal(stdout, &outputs); err != nil {
		return nil, &ParseError{Output: stdout, Err: err}
	}
	return outputs, nil
}

func (c *Command) run(ctx context.Context, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := c.command(ctx, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	log.Debug("nix exited", "args", args, "err", err, "stdout", stdout.String(), "stderr", stderr.String())
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &EvalFailedError{
				Args:   args,
				Status: exitErr.ExitCode(),
				Stdout: stdout.String(),
				Stderr: stderr.String(),
			}
		}
		return nil, fmt.Errorf("run %s: %w", c.executable, err)
	}
	return stdout.Bytes(), nil
}
