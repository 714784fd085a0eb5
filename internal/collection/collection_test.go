// SPDX-License-Identifier: MPL-2.0

package collection

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

const testHost = "x86_64-unknown"

type fixture struct {
	t   *testing.T
	dir string
}

func newFixture(t *testing.T, host string) *fixture {
	t.Helper()
	dir := t.TempDir()
	meta := `{"hostPlatform": "` + host + `"}`
	if err := os.WriteFile(filepath.Join(dir, MetaFileName), []byte(meta), 0o644); err != nil {
		t.Fatal(err)
	}
	return &fixture{t: t, dir: dir}
}

// toolchain creates a toolchain directory providing the given tools.
func (f *fixture) toolchain(name string, tools ...string) string {
	f.t.Helper()
	bin := filepath.Join(f.dir, name, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		f.t.Fatal(err)
	}
	for _, tool := range tools {
		if err := os.WriteFile(filepath.Join(bin, tool), []byte("#!/bin/sh\n"), 0o755); err != nil {
			f.t.Fatal(err)
		}
	}
	return canonical(f.t, filepath.Join(f.dir, name))
}

func (f *fixture) load() *Collection {
	f.t.Helper()
	c, err := FromDirectory(f.dir)
	if err != nil {
		f.t.Fatalf("FromDirectory() error = %v", err)
	}
	return c
}

func canonical(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatal(err)
	}
	return resolved
}

func TestFromDirectory(t *testing.T) {
	t.Parallel()

	c := newFixture(t, testHost).load()
	if got := c.Meta().HostPlatform; got != testHost {
		t.Errorf("HostPlatform = %q, want %q", got, testHost)
	}
}

func TestFromDirectory_Errors(t *testing.T) {
	t.Parallel()

	if _, err := FromDirectory(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing metadata: error = %v, want not-exist", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, MetaFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := FromDirectory(dir); !errors.Is(err, ErrInvalidMeta) {
		t.Errorf("malformed metadata: error = %v, want ErrInvalidMeta", err)
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testHost)
	lookup := func(env map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) { v, ok := env[k]; return v, ok }
	}

	if c := Find(lookup(nil)); c != nil {
		t.Error("Find() without variable should return nil")
	}
	if c := Find(lookup(map[string]string{EnvCollection: t.TempDir()})); c != nil {
		t.Error("Find() with an unloadable directory should return nil")
	}
	if c := Find(lookup(map[string]string{EnvCollection: f.dir})); c == nil {
		t.Error("Find() with a valid collection returned nil")
	}
}

func TestDefaultToolchainDir_ChainOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		present []string
		want    string
	}{
		{"default wins", []string{"default", "stable", "nightly"}, "default"},
		{"stable before beta", []string{"stable", "beta"}, "stable"},
		{"beta before nightly", []string{"beta", "nightly"}, "beta"},
		{"nightly alone", []string{"nightly"}, "nightly"},
		{"suffixed stable", []string{"stable-" + testHost, "nightly"}, "stable-" + testHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, testHost)
			var want string
			for _, name := range tt.present {
				dir := f.toolchain(name)
				if name == tt.want {
					want = dir
				}
			}
			got, err := f.load().DefaultToolchainDir()
			if err != nil {
				t.Fatalf("DefaultToolchainDir() error = %v", err)
			}
			if got != want {
				t.Errorf("DefaultToolchainDir() = %q, want %q", got, want)
			}
		})
	}
}

func TestDefaultToolchainDir_NoneFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testHost)
	f.toolchain("1.80.0")
	_, err := f.load().DefaultToolchainDir()
	var nf *ToolchainNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("DefaultToolchainDir() error = %v, want *ToolchainNotFoundError", err)
	}
}

func TestToolchainDir_SuffixRetry(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testHost)
	want := f.toolchain("nightly-x86_64-unknown")

	got, err := f.load().ToolchainDir("nightly")
	if err != nil {
		t.Fatalf("ToolchainDir() error = %v", err)
	}
	if got != want {
		t.Errorf("ToolchainDir(nightly) = %q, want %q", got, want)
	}
}

func TestToolchainDir_LiteralBeforeSuffix(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testHost)
	want := f.toolchain("nightly")
	f.toolchain("nightly-x86_64-unknown")

	got, err := f.load().ToolchainDir("nightly")
	if err != nil {
		t.Fatalf("ToolchainDir() error = %v", err)
	}
	if got != want {
		t.Errorf("ToolchainDir(nightly) = %q, want %q", got, want)
	}
}

func TestToolchainDir_RejectsPaths(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testHost)
	f.toolchain("stable", "rustc")
	outside := filepath.Join(filepath.Dir(f.dir), "outside")
	if err := os.MkdirAll(filepath.Join(outside, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	c := f.load()

	for _, name := range []string{"../outside", "stable/../../outside", "/tmp", `..\outside`, "..", "."} {
		if dir, err := c.ToolchainDir(name); !errors.Is(err, ErrInvalidToolchainName) {
			t.Errorf("ToolchainDir(%q) = %q, %v; want ErrInvalidToolchainName", name, dir, err)
		}
	}
	if _, err := c.FindTool("rustc", "../outside", false); !errors.Is(err, ErrInvalidToolchainName) {
		t.Errorf("FindTool() error = %v, want ErrInvalidToolchainName", err)
	}
}

func TestToolchainDir_Links(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testHost)
	target := f.toolchain("1.80.0")
	if err := os.Symlink(filepath.Join(f.dir, "1.80.0"), filepath.Join(f.dir, "stable")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(f.dir, "gone"), filepath.Join(f.dir, "beta")); err != nil {
		t.Fatal(err)
	}
	c := f.load()

	got, err := c.ToolchainDir("stable")
	if err != nil {
		t.Fatalf("ToolchainDir(stable) error = %v", err)
	}
	if got != target {
		t.Errorf("ToolchainDir(stable) = %q, want canonical %q", got, target)
	}

	if _, err := c.ToolchainDir("beta"); !errors.Is(err, ErrToolchainNotFound) {
		t.Errorf("dangling link: error = %v, want ErrToolchainNotFound", err)
	}
}

func TestToolchainDir_FileIsNotAToolchain(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testHost)
	if err := os.WriteFile(filepath.Join(f.dir, "stable"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := f.load().ToolchainDir("stable"); !errors.Is(err, ErrToolchainNotFound) {
		t.Errorf("error = %v, want ErrToolchainNotFound", err)
	}
}

func TestFindTool(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testHost)
	stable := f.toolchain("stable", "rustc", "cargo")
	custom := f.toolchain("custom", "rustc")
	c := f.load()

	tests := []struct {
		name          string
		exe           string
		toolchain     string
		allowFallback bool
		wantDir       string
		wantErr       error
	}{
		{"default chain", "cargo", "", false, stable, nil},
		{"named toolchain", "rustc", "custom", false, custom, nil},
		{"named lacks tool", "cargo", "custom", false, "", ErrToolNotProvided},
		{"fallback to default", "cargo", "custom", true, stable, nil},
		{"fallback also lacks tool", "rustfmt", "custom", true, "", ErrToolNotProvided},
		{"default lacks tool", "rustfmt", "", true, "", ErrToolNotProvided},
		{"unknown toolchain", "rustc", "missing", true, "", ErrToolchainNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.FindTool(tt.exe, tt.toolchain, tt.allowFallback)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FindTool() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindTool() error = %v", err)
			}
			if got.Dir != tt.wantDir {
				t.Errorf("Dir = %q, want %q", got.Dir, tt.wantDir)
			}
			if want := filepath.Join(tt.wantDir, "bin", tt.exe); got.Executable != want {
				t.Errorf("Executable = %q, want %q", got.Executable, want)
			}
		})
	}
}

func TestFindTool_FallbackWithoutDefault(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testHost)
	custom := f.toolchain("custom", "rustc")

	_, err := f.load().FindTool("cargo", "custom", true)
	var np *ToolNotProvidedError
	if !errors.As(err, &np) {
		t.Fatalf("error = %v, want *ToolNotProvidedError", err)
	}
	if np.Path != custom || np.Tool != "cargo" {
		t.Errorf("error = %+v, want path %q tool cargo", np, custom)
	}
}

func TestToolchains(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testHost)
	f.toolchain("stable")
	f.toolchain("nightly-x86_64-unknown")

	got, err := f.load().Toolchains()
	if err != nil {
		t.Fatalf("Toolchains() error = %v", err)
	}
	want := []string{"nightly-x86_64-unknown", "stable"}
	if !slices.Equal(got, want) {
		t.Errorf("Toolchains() = %v, want %v", got, want)
	}
}
