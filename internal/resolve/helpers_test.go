// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"strings"

	"github.com/invowk/wrangler/internal/invoker"
	"github.com/invowk/wrangler/pkg/platform"
)

func testEnvironment() invoker.Environment {
	return invoker.Environment{
		Platform: platform.Tag{OS: platform.Linux, Arch: "amd64"},
		LookPath: func(file string) (string, error) { return "/bin/" + file, nil },
	}
}

func envValue(env []string, key string) string {
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v
		}
	}
	return ""
}
