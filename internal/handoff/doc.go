// SPDX-License-Identifier: MPL-2.0

// Package handoff carries the dispatcher's cross-process state.
//
// The dispatcher has no memory between invocations other than the
// environment it passes across exec. A Context is decoded from the
// environment once at startup and encoded back into key/value pairs when the
// process image is replaced. The recursion counter bounds the number of
// self hand-offs: every hand-off increments it and a process that starts at
// or above RecursionLimit refuses to do anything.
package handoff
