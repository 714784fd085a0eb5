// SPDX-License-Identifier: MPL-2.0

package platform

// LibraryPath describes how a platform's dynamic loader finds shared
// libraries that ship inside a toolchain directory.
type LibraryPath struct {
	// Var is the environment variable consulted by the loader.
	Var string
	// Fallback reports that Var is a fallback search list. When it was unset
	// before the hand-off, FallbackDirs are appended after the toolchain's
	// own library directory.
	Fallback bool
	// FallbackDirs are conventional locations, "~/" denoting the home dir.
	FallbackDirs []string
}

var libraryPaths = map[string]LibraryPath{
	Darwin: {
		Var:          "DYLD_FALLBACK_LIBRARY_PATH",
		Fallback:     true,
		FallbackDirs: []string{"~/lib", "/usr/local/lib", "/usr/lib"},
	},
}

var defaultLibraryPath = LibraryPath{Var: "LD_LIBRARY_PATH"}

// LibraryPath returns the loader convention for the tag's operating system.
func (t Tag) LibraryPath() LibraryPath {
	if lp, ok := libraryPaths[t.OS]; ok {
		return lp
	}
	return defaultLibraryPath
}
