// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

const (
	// SandboxNone indicates no sandbox environment detected.
	SandboxNone SandboxType = ""
	// SandboxFlatpak indicates a Flatpak sandbox environment.
	SandboxFlatpak SandboxType = "flatpak"

	flatpakInfoPath = "/.flatpak-info"
)

// detectOnce caches the sandbox detection result for the lifetime of the process.
//
// INVARIANT: detectSandboxFrom MUST NOT panic. sync.OnceValue re-panics on
// every call after a panic.
var detectOnce = sync.OnceValue(func() SandboxType {
	return detectSandboxFrom(statFile)
})

// SandboxType identifies the type of application sandbox, if any.
type SandboxType string

// DetectSandbox returns the sandbox the current process is confined to.
// The result is cached after the first call.
func DetectSandbox() SandboxType {
	return detectOnce()
}

// HostSpawnPrefix returns the argv prefix that runs a program on the host
// from inside the given sandbox, or nil when no prefix is needed.
//
// Editors shipped as Flatpaks start rust-analyzer and cargo inside the
// sandbox, where /nix and the nix daemon socket are usually absent.
func HostSpawnPrefix(st SandboxType) []string {
	switch st {
	case SandboxFlatpak:
		return []string{"flatpak-spawn", "--host"}
	default:
		return nil
	}
}

// HostSpawnEnvArg returns the flag that sets key=value for the program
// started on the host. flatpak-spawn --host does not pass the caller's
// environment on, so every variable the host program needs goes through
// this flag.
func HostSpawnEnvArg(key, value string) string {
	return "--env=" + key + "=" + value
}

// detectSandboxFrom performs sandbox detection using the provided stat function.
func detectSandboxFrom(statFile func(string) error) SandboxType {
	if err := statFile(flatpakInfoPath); err == nil {
		return SandboxFlatpak
	}
	return SandboxNone
}

func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}
