// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"fmt"
	"runtime"
)

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// nixArch maps GOARCH values to the CPU half of a Nix system double.
var nixArch = map[string]string{
	"amd64":   "x86_64",
	"arm64":   "aarch64",
	"386":     "i686",
	"arm":     "armv7l",
	"riscv64": "riscv64",
	"ppc64le": "powerpc64le",
}

// Host returns the platform tag of the running process.
func Host() Tag {
	return Tag{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// Tag identifies an OS/architecture pair using Go's naming.
type Tag struct {
	OS   string
	Arch string
}

// String returns the tag in GOOS/GOARCH form.
func (t Tag) String() string { return t.OS + "/" + t.Arch }

// NixSystem returns the Nix system double (e.g. "x86_64-linux") for the tag.
func (t Tag) NixSystem() (string, error) {
	arch, ok := nixArch[t.Arch]
	if !ok {
		return "", fmt.Errorf("no nix system known for architecture %q", t.Arch)
	}
	switch t.OS {
	case Linux, Darwin:
		return arch + "-" + t.OS, nil
	default:
		return "", fmt.Errorf("no nix system known for operating system %q", t.OS)
	}
}
