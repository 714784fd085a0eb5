// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestParseRecursionCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  map[string]string
		want RecursionCount
	}{
		{"absent", map[string]string{}, 0},
		{"empty", map[string]string{EnvRecursionCount: ""}, 0},
		{"garbage", map[string]string{EnvRecursionCount: "lots"}, 0},
		{"negative", map[string]string{EnvRecursionCount: "-3"}, 0},
		{"overflow", map[string]string{EnvRecursionCount: "99999999999"}, 0},
		{"value", map[string]string{EnvRecursionCount: "7"}, 7},
		{"limit", map[string]string{EnvRecursionCount: "20"}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseRecursionCount(lookupFrom(tt.env)); got != tt.want {
				t.Errorf("ParseRecursionCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRecursionCount_Check(t *testing.T) {
	t.Parallel()

	if err := RecursionCount(19).Check(); err != nil {
		t.Errorf("19 should be allowed, got %v", err)
	}

	err := RecursionCount(20).Check()
	if !errors.Is(err, ErrRecursionLimit) {
		t.Fatalf("20 should be fatal, got %v", err)
	}
	var limitErr *RecursionLimitError
	if !errors.As(err, &limitErr) || limitErr.Count != 20 {
		t.Errorf("expected *RecursionLimitError{Count: 20}, got %#v", err)
	}
}

func TestRecursionCount_Next(t *testing.T) {
	t.Parallel()

	next, ok := RecursionCount(4).Next()
	if !ok || next != 5 {
		t.Errorf("Next() = %d, %v; want 5, true", next, ok)
	}

	if _, ok := RecursionCount(math.MaxUint32).Next(); ok {
		t.Error("Next() at max should report overflow")
	}
}

func TestContext_ApplyIncrementsCounter(t *testing.T) {
	t.Parallel()

	ctx := FromEnv(lookupFrom(map[string]string{EnvRecursionCount: "3"}))
	env := map[string]string{}
	if err := ctx.Apply(env); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if env[EnvRecursionCount] != "4" {
		t.Errorf("%s = %q, want 4", EnvRecursionCount, env[EnvRecursionCount])
	}
	for _, key := range []string{EnvInsideDevelop, EnvToolchainFallback, EnvFlakePath, EnvToolchain, EnvRustupToolchain} {
		if _, ok := env[key]; ok {
			t.Errorf("%s should not be set by a plain context", key)
		}
	}
}

func TestContext_ApplyAboveLimit(t *testing.T) {
	t.Parallel()

	ctx := FromEnv(lookupFrom(map[string]string{EnvRecursionCount: "20"}))
	if err := ctx.Apply(map[string]string{}); !errors.Is(err, ErrRecursionLimit) {
		t.Errorf("Apply() at limit should fail, got %v", err)
	}
}

func TestContext_ApplyOverflowLeavesCounterUnset(t *testing.T) {
	t.Parallel()

	ctx := FromEnv(lookupFrom(map[string]string{
		EnvRecursionCount: strconv.FormatUint(math.MaxUint32, 10),
	}))
	env := map[string]string{}
	if err := ctx.Apply(env); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if _, ok := env[EnvRecursionCount]; ok {
		t.Errorf("counter should be left unset on overflow, got %q", env[EnvRecursionCount])
	}
}

func TestContext_ForwardedState(t *testing.T) {
	t.Parallel()

	ctx := FromEnv(lookupFrom(map[string]string{})).
		WithFlakePath("/src/project/flake.nix").
		WithFallbackToolchain("/nix/store/abc-rust").
		WithToolchain("nightly").
		EnteringDevelop()

	env := map[string]string{}
	if err := ctx.Apply(env); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	want := map[string]string{
		EnvRecursionCount:    "1",
		EnvInsideDevelop:     "1",
		EnvToolchainFallback: "/nix/store/abc-rust",
		EnvFlakePath:         "/src/project/flake.nix",
		EnvToolchain:         "nightly",
		EnvRustupToolchain:   "nightly",
	}
	for k, v := range want {
		if env[k] != v {
			t.Errorf("%s = %q, want %q", k, env[k], v)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Parallel()

	ctx := FromEnv(lookupFrom(map[string]string{
		EnvRecursionCount:    "2",
		EnvInsideDevelop:     "",
		EnvToolchainFallback: "/nix/store/xyz",
		EnvFlakePath:         "/p/flake.nix",
	}))

	if ctx.Recursion() != 2 {
		t.Errorf("Recursion() = %d", ctx.Recursion())
	}
	if !ctx.InsideDevelop() {
		t.Error("InsideDevelop() should be true when the marker is present, even if empty")
	}
	if ctx.FallbackToolchain() != "/nix/store/xyz" {
		t.Errorf("FallbackToolchain() = %q", ctx.FallbackToolchain())
	}
	if ctx.FlakePath() != "/p/flake.nix" {
		t.Errorf("FlakePath() = %q", ctx.FlakePath())
	}

	// Derivation must not mutate the original.
	_ = ctx.WithFlakePath("/other")
	if ctx.FlakePath() != "/p/flake.nix" {
		t.Error("WithFlakePath mutated the receiver")
	}
}
