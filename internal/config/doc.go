// SPDX-License-Identifier: MPL-2.0

// Package config handles dispatcher configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $NIX_RUST_WRANGLER_CONFIG when set, otherwise from
// ~/.config/nix-rust-wrangler/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/nix-rust-wrangler/config.cue on macOS,
// %APPDATA%\nix-rust-wrangler\config.cue on Windows). Files are validated against
// the embedded CUE schema (config_schema.cue). The dispatcher's environment
// variables always take precedence over the file.
package config
