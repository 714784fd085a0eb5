// SPDX-License-Identifier: MPL-2.0

package handoff

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

const (
	// EnvRecursionCount is the recursion counter shared with rustup.
	EnvRecursionCount = "RUST_RECURSION_COUNT"
	// EnvInsideDevelop marks a process started by the develop proxy. Its
	// presence disables the Nix source, which breaks the develop loop.
	EnvInsideDevelop = "NIX_RUST_WRANGLER_INSIDE_NIX_DEVELOP"
	// EnvToolchainFallback names a toolchain directory whose libraries must
	// be made visible when the develop proxy hands off.
	EnvToolchainFallback = "NIX_RUST_WRANGLER_TOOLCHAIN_FALLBACK"
	// EnvFlakePath forwards the resolved flake.nix so nested invocations
	// skip the directory search.
	EnvFlakePath = "NIX_RUST_WRANGLER_FLAKE_PATH"
	// EnvToolchain is the dispatcher-specific toolchain override.
	EnvToolchain = "NIX_RUST_WRANGLER_TOOLCHAIN"
	// EnvRustupToolchain is the generic toolchain override.
	EnvRustupToolchain = "RUSTUP_TOOLCHAIN"

	// RecursionLimit is the counter value at which the dispatcher aborts.
	RecursionLimit RecursionCount = 20
)

// ErrRecursionLimit is the sentinel error wrapped by RecursionLimitError.
var ErrRecursionLimit = errors.New("recursion limit exceeded")

type (
	// LookupFunc has the signature of os.LookupEnv.
	LookupFunc func(key string) (string, bool)

	// RecursionCount is the number of hand-offs that led to this process.
	RecursionCount uint32

	// RecursionLimitError is returned when the counter reached RecursionLimit.
	RecursionLimitError struct {
		Count RecursionCount
	}

	// Context is the immutable state threaded through the environment.
	// Use the With* methods to derive modified copies.
	Context struct {
		recursion         RecursionCount
		insideDevelop     bool
		fallbackToolchain string
		flakePath         string
		toolchain         string
	}
)

// ParseRecursionCount reads EnvRecursionCount. An absent or unparsable value
// counts as zero.
func ParseRecursionCount(lookup LookupFunc) RecursionCount {
	raw, ok := lookup(EnvRecursionCount)
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return RecursionCount(n)
}

// Exceeded reports whether the counter has reached RecursionLimit.
func (c RecursionCount) Exceeded() bool { return c >= RecursionLimit }

// Next returns the incremented counter. It reports false instead of
// wrapping around when the counter is already at its maximum.
func (c RecursionCount) Next() (RecursionCount, bool) {
	if c == math.MaxUint32 {
		return c, false
	}
	return c + 1, true
}

// Check returns a *RecursionLimitError when the counter is exceeded.
func (c RecursionCount) Check() error {
	if c.Exceeded() {
		return &RecursionLimitError{Count: c}
	}
	return nil
}

// String returns the decimal representation used in the environment.
func (c RecursionCount) String() string { return strconv.FormatUint(uint64(c), 10) }

// Error implements the error interface.
func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("%s reached %d (limit %d), aborting to prevent infinite recursion",
		EnvRecursionCount, e.Count, RecursionLimit)
}

// Unwrap returns ErrRecursionLimit for errors.Is() compatibility.
func (e *RecursionLimitError) Unwrap() error { return ErrRecursionLimit }

// FromEnv decodes the Context from the process environment.
func FromEnv(lookup LookupFunc) Context {
	ctx := Context{recursion: ParseRecursionCount(lookup)}
	if _, ok := lookup(EnvInsideDevelop); ok {
		ctx.insideDevelop = true
	}
	if v, ok := lookup(EnvToolchainFallback); ok && v != "" {
		ctx.fallbackToolchain = v
	}
	if v, ok := lookup(EnvFlakePath); ok && v != "" {
		ctx.flakePath = v
	}
	return ctx
}

// Recursion returns the counter this process was started with.
func (c Context) Recursion() RecursionCount { return c.recursion }

// InsideDevelop reports whether this process runs inside a develop proxy.
func (c Context) InsideDevelop() bool { return c.insideDevelop }

// FallbackToolchain returns the forwarded fallback toolchain directory.
func (c Context) FallbackToolchain() string { return c.fallbackToolchain }

// FlakePath returns the flake.nix path to forward, if any.
func (c Context) FlakePath() string { return c.flakePath }

// Toolchain returns the toolchain override name to forward, if any.
func (c Context) Toolchain() string { return c.toolchain }

// WithFlakePath returns a copy that forwards the given flake.nix path.
func (c Context) WithFlakePath(path string) Context {
	c.flakePath = path
	return c
}

// WithFallbackToolchain returns a copy that forwards a fallback toolchain dir.
func (c Context) WithFallbackToolchain(dir string) Context {
	c.fallbackToolchain = dir
	return c
}

// WithToolchain returns a copy that forwards the toolchain override name.
func (c Context) WithToolchain(name string) Context {
	c.toolchain = name
	return c
}

// EnteringDevelop returns a copy marked as running inside the develop proxy.
func (c Context) EnteringDevelop() Context {
	c.insideDevelop = true
	return c
}

// Apply encodes the context into env for the next process. The recursion
// counter is incremented; if the increment would overflow the variable is
// left untouched. Apply fails when the next value would exceed the limit.
func (c Context) Apply(env map[string]string) error {
	next, ok := c.recursion.Next()
	if ok {
		if next > RecursionLimit {
			return &RecursionLimitError{Count: next}
		}
		env[EnvRecursionCount] = next.String()
	}
	if c.insideDevelop {
		env[EnvInsideDevelop] = "1"
	}
	if c.fallbackToolchain != "" {
		env[EnvToolchainFallback] = c.fallbackToolchain
	}
	if c.flakePath != "" {
		env[EnvFlakePath] = c.flakePath
	}
	if c.toolchain != "" {
		env[EnvRustupToolchain] = c.toolchain
		env[EnvToolchain] = c.toolchain
	}
	return nil
}
