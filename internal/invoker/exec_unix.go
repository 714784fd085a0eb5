// SPDX-License-Identifier: MPL-2.0

//go:build unix

package invoker

import (
	"golang.org/x/sys/unix"
)

// Exec replaces the current process image. It only returns on failure.
func Exec(h HandOff) error {
	err := unix.Exec(h.Path, h.Argv, h.Env)
	return &ExecError{Path: h.Path, Err: err}
}
