// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// DefaultHost is the host platform written by Collection.
const DefaultHost = "x86_64-unknown-linux-gnu"

// Canonical resolves links in path.
func Canonical(t testing.TB, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatalf("failed to resolve %s: %v", path, err)
	}
	return resolved
}

// TempDir is t.TempDir with links resolved, so paths compare equal to
// canonicalized results on systems where the temp dir is a link.
func TempDir(t testing.TB) string {
	t.Helper()
	return Canonical(t, t.TempDir())
}

// WriteExecutable writes an executable file, creating parent directories.
func WriteExecutable(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	//nolint:gosec // test executables must be executable
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// Toolchain creates dir/bin holding a stub executable per tool and returns
// the canonical dir.
func Toolchain(t testing.TB, dir string, tools ...string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		t.Fatalf("failed to create toolchain %s: %v", dir, err)
	}
	for _, tool := range tools {
		WriteExecutable(t, filepath.Join(dir, "bin", tool), "#!/bin/sh\n")
	}
	return Canonical(t, dir)
}

// Collection creates a toolchain collection for DefaultHost with one
// toolchain per entry and returns its canonical root.
func Collection(t testing.TB, toolchains map[string][]string) string {
	t.Helper()
	root := TempDir(t)
	meta := `{"hostPlatform": "` + DefaultHost + `"}`
	if err := os.WriteFile(filepath.Join(root, "collection.json"), []byte(meta), 0o644); err != nil {
		t.Fatalf("failed to write collection metadata: %v", err)
	}
	for name, tools := range toolchains {
		Toolchain(t, filepath.Join(root, name), tools...)
	}
	return root
}

// EnvValue returns the value of key in env, in os.Environ form.
func EnvValue(env []string, key string) (string, bool) {
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}
