// SPDX-License-Identifier: MPL-2.0

package nix

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/invowk/wrangler/internal/handoff"
)

// FlakeFileName is the file that marks a flake directory.
const FlakeFileName = "flake.nix"

// Flake is a located flake.nix and its directory.
type Flake struct {
	path string
	dir  string
}

// NewFlake returns the Flake for a flake.nix path.
func NewFlake(path string) Flake {
	return Flake{path: path, dir: filepath.Dir(path)}
}

// FindFlake locates the flake to use. A forwarded EnvFlakePath wins; then
// the tree above workDir is searched, then the tree above the executable
// the process was started as. Empty workDir or exe skip that step.
func FindFlake(lookup handoff.LookupFunc, workDir, exe string) (Flake, bool) {
	if path, ok := lookup(handoff.EnvFlakePath); ok && path != "" {
		return NewFlake(path), true
	}

	if workDir != "" {
		if f, ok := SearchFlake(workDir); ok {
			return f, true
		}
	}

	if exe != "" {
		log.Debug("searching for flake relative to own executable", "exe", exe)
		return SearchFlake(filepath.Dir(exe))
	}
	return Flake{}, false
}

// SearchFlake walks from start towards the filesystem root and returns the
// first directory containing a regular flake.nix.
func SearchFlake(start string) (Flake, bool) {
	current := filepath.Clean(start)
	for {
		candidate := filepath.Join(current, FlakeFileName)
		log.Debug("checking for flake.nix", "path", candidate)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			log.Debug("found flake.nix", "path", candidate)
			return Flake{path: candidate, dir: current}, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			return Flake{}, false
		}
		current = parent
	}
}

// Path returns the flake.nix path.
func (f Flake) Path() string { return f.path }

// Dir returns the directory holding flake.nix.
func (f Flake) Dir() string { return f.dir }

// Installable returns "<dir>#<attr>".
func (f Flake) Installable(attr string) string {
	return f.dir + "#" + attr
}
