// SPDX-License-Identifier: MPL-2.0

package nix

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/invowk/wrangler/internal/invocation"
)

// DevShellName is the dev shell preferred over "default".
const DevShellName = "rustWrangler"

const buildableKind = "derivation"

//go:embed inspect.nix
var inspectExpr string

type (
	// ValueKind is Buildable, or Other carrying the Nix type name of a value
	// that cannot be built.
	ValueKind struct {
		buildable bool
		other     string
	}

	// Inspection is the typed result of evaluating inspect.nix against a
	// flake.
	Inspection struct {
		DefaultDevShell      *ValueKind          `json:"defaultDevShell"`
		RustWranglerDevShell *ValueKind          `json:"rustWranglerDevShell"`
		Config               *EmbeddedConfigAttr `json:"config"`
	}

	// EmbeddedConfigAttr is the dispatcher configuration declared in the
	// flake, together with the attribute path it was found at.
	EmbeddedConfigAttr struct {
		At    string         `json:"at"`
		Value EmbeddedConfig `json:"value"`
	}

	// EmbeddedConfig selects toolchains declared by the flake.
	EmbeddedConfig struct {
		Ignore     bool                 `json:"ignore"`
		Toolchain  *ValueKind           `json:"toolchain"`
		Toolchains map[string]ValueKind `json:"toolchains"`
	}
)

// Buildable returns the kind of a derivation.
func Buildable() ValueKind { return ValueKind{buildable: true} }

// Other returns the kind of a non-derivation value.
func Other(kind string) ValueKind { return ValueKind{other: kind} }

// IsBuildable reports whether the value is a derivation.
func (k ValueKind) IsBuildable() bool { return k.buildable }

// String returns the Nix type name.
func (k ValueKind) String() string {
	if k.buildable {
		return buildableKind
	}
	return k.other
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *ValueKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("value kind: %w", err)
	}
	if s == buildableKind {
		*k = Buildable()
	} else {
		*k = Other(s)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (k ValueKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// BuildableShell reports whether kind is present and buildable.
func BuildableShell(kind *ValueKind) bool {
	return kind != nil && kind.IsBuildable()
}

// InspectExpr returns the expression applied to the flake for system.
func InspectExpr(system string) string {
	return "(" + inspectExpr + ") " + strconv.Quote(system)
}

// Inspect evaluates the flake's dispatcher-relevant outputs for system.
func (c *Command) Inspect(ctx context.Context, flake Flake, system string) (Inspection, error) {
	var insp Inspection
	if err := c.Eval(ctx, flake, ".", InspectExpr(system), &insp); err != nil {
		return Inspection{}, err
	}
	return insp, nil
}

// DevelopArgs returns the nix arguments that run self as the develop proxy
// inside the flake's dev shell. An empty shell selects the default shell.
// The tool and its arguments are appended by the caller.
func DevelopArgs(flake Flake, shell, self string) []string {
	target := flake.Dir()
	if shell != "" {
		target = flake.Installable(shell)
	}
	return []string{"develop", target, "--command", self, invocation.DevelopProxyName}
}

// DevelopArgv is DevelopArgs as a complete argument vector for this nix.
func (c *Command) DevelopArgv(flake Flake, shell, self string) []string {
	return c.Argv(DevelopArgs(flake, shell, self)...)
}
