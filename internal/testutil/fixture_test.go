// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCollection(t *testing.T) {
	t.Parallel()

	root := Collection(t, map[string][]string{"stable": {"cargo", "rustc"}})

	data, err := os.ReadFile(filepath.Join(root, "collection.json"))
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"hostPlatform": "` + DefaultHost + `"}`; string(data) != want {
		t.Errorf("collection.json = %q, want %q", data, want)
	}

	for _, tool := range []string{"cargo", "rustc"} {
		info, err := os.Stat(filepath.Join(root, "stable", "bin", tool))
		if err != nil {
			t.Fatalf("stat %s: %v", tool, err)
		}
		if info.Mode().Perm()&0o111 == 0 {
			t.Errorf("%s is not executable", tool)
		}
	}
}

func TestEnvValue(t *testing.T) {
	t.Parallel()

	env := []string{"A=1", "B=x=y", "EMPTY="}
	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"A", "1", true},
		{"B", "x=y", true},
		{"EMPTY", "", true},
		{"MISSING", "", false},
	}
	for _, tt := range tests {
		got, ok := EnvValue(env, tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("EnvValue(%q) = %q, %v; want %q, %v", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}
}
