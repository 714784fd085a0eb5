// SPDX-License-Identifier: MPL-2.0

// Package invocation derives what the dispatcher was asked to do from its
// argument vector and environment.
//
// The tool is determined by the file stem of argv[0], so a single binary can
// be installed under many names (rustc, cargo, rustfmt, ...). When invoked
// under its canonical name, the next argument names the tool instead. A
// leading "+name" argument selects a toolchain, falling back to the
// NIX_RUST_WRANGLER_TOOLCHAIN and RUSTUP_TOOLCHAIN variables in that order.
package invocation
