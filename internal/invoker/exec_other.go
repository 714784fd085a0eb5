// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package invoker

import (
	"errors"
	"os"
	"os/exec"
)

// Exec runs the hand-off as a child process with inherited stdio and exits
// with its status, since this platform cannot replace a process image. It
// only returns when the child could not be started.
func Exec(h HandOff) error {
	//nolint:gosec,noctx // the hand-off target is the resolved tool by construction
	cmd := exec.Command(h.Path, h.Argv[1:]...)
	cmd.Args = h.Argv
	cmd.Env = h.Env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		os.Exit(0)
	case errors.As(err, &exitErr):
		os.Exit(exitErr.ExitCode())
	}
	return &ExecError{Path: h.Path, Err: err}
}
