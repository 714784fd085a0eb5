// SPDX-License-Identifier: MPL-2.0

// Package platform centralizes the host facts the dispatcher resolves once at
// startup: the OS tag, the Nix system double, the dynamic-library search path
// convention, and whether the process is confined to an application sandbox.
package platform
