// SPDX-License-Identifier: MPL-2.0

package invocation

import (
	"errors"
	"slices"
	"testing"

	"github.com/invowk/wrangler/internal/handoff"
)

func envLookup(env map[string]string) handoff.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

var noEnv = envLookup(nil)

func TestDerive_KnownToolNames(t *testing.T) {
	t.Parallel()

	for _, tool := range append(ProxiedTools(), KnownTool(ToolDevelopProxy)) {
		t.Run(tool.Name(), func(t *testing.T) {
			t.Parallel()
			for _, argv0 := range []string{tool.Name(), "/usr/local/bin/" + tool.Name(), "bin/" + tool.Name() + ".exe"} {
				inv, err := Derive([]string{argv0, "--version"}, noEnv)
				if err != nil {
					t.Fatalf("Derive(%q) error = %v", argv0, err)
				}
				if inv.Tool() != tool {
					t.Errorf("Derive(%q).Tool() = %v, want %v", argv0, inv.Tool(), tool)
				}
				if !slices.Equal(inv.RemainingArgs(), []string{"--version"}) {
					t.Errorf("RemainingArgs() = %v", inv.RemainingArgs())
				}
			}
		})
	}
}

func TestDerive_OtherToolPreservesName(t *testing.T) {
	t.Parallel()

	names := []string{"Rustc", "cargo-nextest", "rust-analyzer-proc-macro-srv", "caf\xe9", ".hidden"}
	for _, name := range names {
		inv, err := Derive([]string{"/opt/bin/" + name}, noEnv)
		if err != nil {
			t.Fatalf("Derive(%q) error = %v", name, err)
		}
		if inv.Tool().Kind() != ToolOther {
			t.Errorf("%q: kind = %v, want ToolOther", name, inv.Tool().Kind())
		}
		if inv.Tool().Name() != name {
			t.Errorf("%q: name = %q, not preserved", name, inv.Tool().Name())
		}
	}
}

func TestDerive_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		argv []string
		want error
	}{
		{"no argv", nil, ErrMissingArgv0},
		{"empty argv0", []string{""}, ErrInvalidToolName},
		{"root argv0", []string{"/"}, ErrInvalidToolName},
		{"canonical without tool", []string{WranglerName}, ErrMissingTool},
		{"canonical with override but no tool", []string{WranglerName, "+nightly"}, ErrMissingTool},
		{"canonical with invalid tool", []string{WranglerName, ".."}, ErrInvalidToolName},
		{"bare plus", []string{"cargo", "+", "build"}, ErrEmptyToolchainName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Derive(tt.argv, noEnv); !errors.Is(err, tt.want) {
				t.Errorf("Derive(%q) error = %v, want %v", tt.argv, err, tt.want)
			}
		})
	}
}

func TestDerive_CanonicalName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		argv     []string
		tool     Tool
		override ToolchainOverride
		args     []string
	}{
		{
			name: "tool follows canonical name",
			argv: []string{"/nix/store/x/bin/nix-rust-wrangler", "cargo", "build", "--release"},
			tool: KnownTool(ToolCargo),
			args: []string{"build", "--release"},
		},
		{
			name:     "override then tool",
			argv:     []string{WranglerName, "+nightly", "rustc", "-V"},
			tool:     KnownTool(ToolRustc),
			override: OverrideFromArg("nightly"),
			args:     []string{"-V"},
		},
		{
			name: "develop proxy re-entry",
			argv: []string{WranglerName, DevelopProxyName, "cargo", "test"},
			tool: KnownTool(ToolDevelopProxy),
			args: []string{"cargo", "test"},
		},
		{
			name: "only the second token is an override",
			argv: []string{"cargo", "build", "+nightly"},
			tool: KnownTool(ToolCargo),
			args: []string{"build", "+nightly"},
		},
		{
			name: "tool given by path",
			argv: []string{WranglerName, "/some/where/rustfmt", "src/main.rs"},
			tool: KnownTool(ToolRustfmt),
			args: []string{"src/main.rs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			inv, err := Derive(tt.argv, noEnv)
			if err != nil {
				t.Fatalf("Derive() error = %v", err)
			}
			if inv.Tool() != tt.tool {
				t.Errorf("Tool() = %v, want %v", inv.Tool(), tt.tool)
			}
			if inv.ToolchainOverride() != tt.override {
				t.Errorf("ToolchainOverride() = %v, want %v", inv.ToolchainOverride(), tt.override)
			}
			if !slices.Equal(inv.RemainingArgs(), tt.args) {
				t.Errorf("RemainingArgs() = %v, want %v", inv.RemainingArgs(), tt.args)
			}
		})
	}
}

func TestDerive_OverridePrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		arg  bool
		own  bool
		gen  bool
		want ToolchainOverride
	}{
		{"none", false, false, false, NoOverride()},
		{"generic only", false, false, true, OverrideFromEnv("generic")},
		{"dispatcher only", false, true, false, OverrideFromEnv("dispatcher")},
		{"dispatcher beats generic", false, true, true, OverrideFromEnv("dispatcher")},
		{"argument only", true, false, false, OverrideFromArg("argument")},
		{"argument beats generic", true, false, true, OverrideFromArg("argument")},
		{"argument beats dispatcher", true, true, false, OverrideFromArg("argument")},
		{"argument beats all", true, true, true, OverrideFromArg("argument")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := map[string]string{}
			if tt.own {
				env[handoff.EnvToolchain] = "dispatcher"
			}
			if tt.gen {
				env[handoff.EnvRustupToolchain] = "generic"
			}
			argv := []string{"rustc", "main.rs"}
			if tt.arg {
				argv = []string{"rustc", "+argument", "main.rs"}
			}

			inv, err := Derive(argv, envLookup(env))
			if err != nil {
				t.Fatalf("Derive() error = %v", err)
			}
			if inv.ToolchainOverride() != tt.want {
				t.Errorf("ToolchainOverride() = %v, want %v", inv.ToolchainOverride(), tt.want)
			}
			if !slices.Equal(inv.RemainingArgs(), []string{"main.rs"}) {
				t.Errorf("RemainingArgs() = %v", inv.RemainingArgs())
			}
		})
	}
}

func TestDerive_EnvOverrideValidation(t *testing.T) {
	t.Parallel()

	_, err := Derive([]string{"cargo"}, envLookup(map[string]string{handoff.EnvToolchain: "night\xffly"}))
	if !errors.Is(err, ErrToolchainEnvNameNotUnicode) {
		t.Errorf("non-UTF-8 override: error = %v", err)
	}

	inv, err := Derive([]string{"cargo"}, envLookup(map[string]string{
		handoff.EnvToolchain:       "",
		handoff.EnvRustupToolchain: "beta",
	}))
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if inv.ToolchainOverride() != OverrideFromEnv("beta") {
		t.Errorf("empty dispatcher variable should fall through, got %v", inv.ToolchainOverride())
	}
}

func TestInvocation_RemainingArgsIsCopy(t *testing.T) {
	t.Parallel()

	argv := []string{"rustc", "a.rs"}
	inv, err := Derive(argv, noEnv)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	argv[1] = "mutated"
	args := inv.RemainingArgs()
	args[0] = "also mutated"
	if got := inv.RemainingArgs(); got[0] != "a.rs" {
		t.Errorf("Invocation was mutated through a shared slice: %v", got)
	}
}

func TestFileStem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"rustc", "rustc", true},
		{"/a/b/rustc.exe", "rustc", true},
		{"archive.tar.gz", "archive.tar", true},
		{".profile", ".profile", true},
		{"trailing/", "trailing", true},
		{"", "", false},
		{"..", "", false},
		{"/", "", false},
	}
	for _, tt := range tests {
		got, ok := fileStem(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("fileStem(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
