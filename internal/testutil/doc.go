// SPDX-License-Identifier: MPL-2.0

// Package testutil provides fixtures shared by tests: toolchain
// directories, toolchain collections and environment helpers. Every helper
// fails the test immediately on error.
package testutil
