// SPDX-License-Identifier: MPL-2.0

// Command wranglerctl inspects and manages a nix-rust-wrangler
// installation: it shows how an invocation would be resolved, lists
// toolchain collections, installs tool links and explains failures.
package main

import (
	"context"
	"os"
)

func main() {
	app := NewApp(Dependencies{})
	os.Exit(app.Execute(context.Background(), os.Args[1:]))
}
