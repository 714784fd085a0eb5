// SPDX-License-Identifier: MPL-2.0

package invoker

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrExecFailed is the sentinel wrapped by ExecError.
var ErrExecFailed = errors.New("failed to execute tool")

var defaultLookPath = exec.LookPath

// ExecError is returned when the hand-off could not replace the process.
type ExecError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to execute %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrExecFailed and the OS error.
func (e *ExecError) Unwrap() []error { return []error{ErrExecFailed, e.Err} }
