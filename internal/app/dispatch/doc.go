// SPDX-License-Identifier: MPL-2.0

// Package dispatch is the top-level driver of nix-rust-wrangler. It
// decides which source serves an invocation (develop-proxy re-entry, the
// project flake, the toolchain collection or the ambient search path) and
// returns the resulting hand-off as a Plan, without executing it.
package dispatch
