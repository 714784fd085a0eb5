// SPDX-License-Identifier: MPL-2.0

package invocation

import (
	"path/filepath"
	"strings"
)

// Tool kinds. ToolOther is the open arm and carries the invoked name.
const (
	ToolOther ToolKind = iota
	ToolRustc
	ToolRustdoc
	ToolCargo
	ToolRustLLDB
	ToolRustGDB
	ToolRustGDBGUI
	ToolRLS
	ToolCargoClippy
	ToolClippyDriver
	ToolCargoMiri
	ToolRustAnalyzer
	ToolRustfmt
	ToolCargoFmt
	ToolRustup
	ToolWrangler
	ToolDevelopProxy
)

// Canonical names of the dispatcher's own two modes.
const (
	WranglerName     = "nix-rust-wrangler"
	DevelopProxyName = "nix-develop-proxy"
)

type (
	// ToolKind enumerates the closed set of tools the dispatcher knows.
	ToolKind uint8

	// Tool is a tagged variant: one of the known kinds, or ToolOther with
	// the name it was invoked as. The zero value is an unnamed ToolOther.
	Tool struct {
		kind  ToolKind
		other string
	}
)

var toolNames = map[ToolKind]string{
	ToolRustc:        "rustc",
	ToolRustdoc:      "rustdoc",
	ToolCargo:        "cargo",
	ToolRustLLDB:     "rust-lldb",
	ToolRustGDB:      "rust-gdb",
	ToolRustGDBGUI:   "rust-gdbgui",
	ToolRLS:          "rls",
	ToolCargoClippy:  "cargo-clippy",
	ToolClippyDriver: "clippy-driver",
	ToolCargoMiri:    "cargo-miri",
	ToolRustAnalyzer: "rust-analyzer",
	ToolRustfmt:      "rustfmt",
	ToolCargoFmt:     "cargo-fmt",
	ToolRustup:       "rustup",
	ToolWrangler:     WranglerName,
	ToolDevelopProxy: DevelopProxyName,
}

var toolsByName = func() map[string]ToolKind {
	m := make(map[string]ToolKind, len(toolNames))
	for kind, name := range toolNames {
		m[name] = kind
	}
	return m
}()

// KnownTool returns the Tool for a closed-set kind. Passing ToolOther
// yields an unnamed Other tool; use OtherTool for a named one.
func KnownTool(kind ToolKind) Tool {
	return Tool{kind: kind}
}

// OtherTool returns the open-arm Tool carrying name verbatim.
func OtherTool(name string) Tool {
	return Tool{kind: ToolOther, other: name}
}

// ToolFromName matches name exactly (case-sensitive) against the closed set.
func ToolFromName(name string) Tool {
	if kind, ok := toolsByName[name]; ok {
		return Tool{kind: kind}
	}
	return OtherTool(name)
}

// ProxiedTools lists every tool name a dispatcher symlink may be installed
// under, excluding the dispatcher's own modes.
func ProxiedTools() []Tool {
	tools := make([]Tool, 0, len(toolNames))
	for kind := ToolRustc; kind < ToolWrangler; kind++ {
		tools = append(tools, Tool{kind: kind})
	}
	return tools
}

// Kind returns the variant tag.
func (t Tool) Kind() ToolKind { return t.kind }

// Name returns the tool's canonical name, or the invoked name for Other.
func (t Tool) Name() string {
	if t.kind == ToolOther {
		return t.other
	}
	return toolNames[t.kind]
}

// ExecutableName returns the file name looked up inside a toolchain's bin
// directory or on the search path.
func (t Tool) ExecutableName() string { return t.Name() }

// IsPackageManager reports whether the tool is cargo. Custom toolchains
// frequently ship rustc without cargo, so cargo may borrow a neighbour.
func (t Tool) IsPackageManager() bool { return t.kind == ToolCargo }

// IsDispatcher reports whether the tool is one of the dispatcher's own modes.
func (t Tool) IsDispatcher() bool {
	return t.kind == ToolWrangler || t.kind == ToolDevelopProxy
}

// String implements fmt.Stringer.
func (t Tool) String() string {
	if t.kind == ToolOther {
		return "other(" + t.other + ")"
	}
	return t.Name()
}

// fileStem returns the final path element without its extension, mirroring
// the usual "stem" definition: a leading dot does not start an extension.
func fileStem(arg string) (string, bool) {
	if arg == "" {
		return "", false
	}
	base := filepath.Base(arg)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", false
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base, base != ""
}
