// SPDX-License-Identifier: MPL-2.0

// Package nix drives the Nix command line: probing for flake support,
// locating flake.nix, evaluating and building flake attributes, and
// assembling the "nix develop" command that re-enters the dispatcher.
//
// Every subprocess is created through an injectable ExecCommandFunc so the
// package can be tested without Nix installed. Inside a Flatpak sandbox the
// commands are prefixed with "flatpak-spawn --host".
package nix
