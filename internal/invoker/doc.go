// SPDX-License-Identifier: MPL-2.0

// Package invoker turns a resolved tool into the terminal hand-off: the
// program, argument vector and environment that replace the current
// process.
//
// Planning is separate from execution so the hand-off can be inspected
// (wranglerctl resolve) and tested without replacing the test process.
package invoker
