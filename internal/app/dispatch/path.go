// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"os"
	"path/filepath"
)

// SearchPath looks for an executable called name in the directories of
// pathList, in order. Candidates that canonicalize to self are skipped and
// reported through sawSelf, since handing off to them would only start the
// dispatcher again.
func SearchPath(pathList, name, self string) (exe string, sawSelf bool) {
	var selfCanonical string
	if self != "" {
		selfCanonical = canonical(self)
	}

	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if !isExecutable(candidate) {
			continue
		}
		if selfCanonical != "" && canonical(candidate) == selfCanonical {
			sawSelf = true
			continue
		}
		return candidate, sawSelf
	}
	return "", sawSelf
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
