// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets the test binary impersonate the dispatcher under every
// name the scripts invoke it as.
func TestMain(m *testing.M) {
	dispatcher := func() int { return run(context.Background(), os.Args, os.Stderr) }
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"nix-rust-wrangler": dispatcher,
		"cargo":             dispatcher,
		"rustc":             dispatcher,
	}))
}

func TestScripts(t *testing.T) {
	t.Parallel()

	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			env.Setenv("NIX_RUST_WRANGLER_DISABLE_NIX", "1")
			env.Setenv("XDG_CONFIG_HOME", env.WorkDir+"/config")
			return nil
		},
	})
}
