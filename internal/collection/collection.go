// SPDX-License-Identifier: MPL-2.0

package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// EnvCollection names the collection root directory.
	EnvCollection = "NIX_RUST_WRANGLER_TOOLCHAIN_COLLECTION"
	// MetaFileName is the metadata file at the collection root.
	MetaFileName = "collection.json"
)

// DefaultChain is the search order used when no toolchain is named.
var DefaultChain = []string{"default", "stable", "beta", "nightly"}

var (
	// ErrToolchainNotFound is returned when no candidate directory exists.
	ErrToolchainNotFound = errors.New("toolchain not found")
	// ErrToolNotProvided is the sentinel wrapped by ToolNotProvidedError.
	ErrToolNotProvided = errors.New("toolchain does not provide tool")
	// ErrInvalidMeta is returned when collection.json cannot be decoded.
	ErrInvalidMeta = errors.New("invalid toolchain collection metadata")
	// ErrInvalidToolchainName is returned for names that are not a single
	// path element, so an override cannot point outside the collection.
	ErrInvalidToolchainName = errors.New("invalid toolchain name")
)

type (
	// Meta is the content of collection.json.
	Meta struct {
		HostPlatform string `json:"hostPlatform"`
	}

	// Collection is a loaded toolchain collection. It is immutable.
	Collection struct {
		dir  string
		meta Meta
	}

	// ToolchainNotFoundError names the toolchain that could not be located.
	ToolchainNotFoundError struct {
		Name string
	}

	// ToolNotProvidedError is returned when a toolchain lacks the tool.
	ToolNotProvidedError struct {
		Path string
		Tool string
	}

	// Resolved is a toolchain directory together with a tool executable
	// confirmed to exist inside it.
	Resolved struct {
		Dir        string
		Executable string
	}
)

// Error implements the error interface.
func (e *ToolchainNotFoundError) Error() string {
	return fmt.Sprintf("toolchain not found: %s", e.Name)
}

// Unwrap returns ErrToolchainNotFound for errors.Is() compatibility.
func (e *ToolchainNotFoundError) Unwrap() error { return ErrToolchainNotFound }

// Error implements the error interface.
func (e *ToolNotProvidedError) Error() string {
	return fmt.Sprintf("toolchain at %s does not provide %s", e.Path, e.Tool)
}

// Unwrap returns ErrToolNotProvided for errors.Is() compatibility.
func (e *ToolNotProvidedError) Unwrap() error { return ErrToolNotProvided }

// Find loads the collection named by EnvCollection. It returns nil when the
// variable is unset or the collection fails to load; load failures are
// logged, since a missing collection only disables this source.
func Find(lookup func(string) (string, bool)) *Collection {
	dir, ok := lookup(EnvCollection)
	if !ok || dir == "" {
		return nil
	}
	return Load(dir)
}

// Load is Find for an already known directory.
func Load(dir string) *Collection {
	c, err := FromDirectory(dir)
	if err != nil {
		log.Error("failed to load toolchain collection", "dir", dir, "err", err)
		return nil
	}
	return c
}

// FromDirectory reads collection.json from dir.
func FromDirectory(dir string) (*Collection, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetaFileName))
	if err != nil {
		return nil, fmt.Errorf("read collection metadata: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMeta, err)
	}
	return &Collection{dir: dir, meta: meta}, nil
}

// Dir returns the collection root as given.
func (c *Collection) Dir() string { return c.dir }

// Meta returns the loaded metadata.
func (c *Collection) Meta() Meta { return c.meta }

// FindTool locates exe inside the named toolchain, or inside the default
// chain when name is empty. With allowFallback set and an explicit name, a
// toolchain lacking exe defers to the default chain before failing.
func (c *Collection) FindTool(exe, name string, allowFallback bool) (Resolved, error) {
	var (
		dir string
		err error
	)
	if name != "" {
		dir, err = c.ToolchainDir(name)
	} else {
		dir, err = c.DefaultToolchainDir()
	}
	if err != nil {
		return Resolved{}, err
	}

	if path := filepath.Join(dir, "bin", exe); isFile(path) {
		return Resolved{Dir: dir, Executable: path}, nil
	}

	if allowFallback && name != "" {
		defaultDir, err := c.DefaultToolchainDir()
		switch {
		case errors.Is(err, ErrToolchainNotFound):
			return Resolved{}, &ToolNotProvidedError{Path: dir, Tool: exe}
		case err != nil:
			return Resolved{}, err
		}
		if path := filepath.Join(defaultDir, "bin", exe); isFile(path) {
			return Resolved{Dir: defaultDir, Executable: path}, nil
		}
	}

	return Resolved{}, &ToolNotProvidedError{Path: dir, Tool: exe}
}

// DefaultToolchainDir returns the first toolchain of DefaultChain that exists.
func (c *Collection) DefaultToolchainDir() (string, error) {
	for _, name := range DefaultChain {
		dir, err := c.ToolchainDir(name)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, ErrToolchainNotFound) {
			return "", err
		}
	}
	return "", &ToolchainNotFoundError{Name: strings.Join(DefaultChain, ", ")}
}

// ToolchainDir resolves name literally, then with the host platform suffix.
func (c *Collection) ToolchainDir(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	dir, err := c.toolchainDirRaw(name)
	if errors.Is(err, ErrToolchainNotFound) && c.meta.HostPlatform != "" {
		return c.toolchainDirRaw(name + "-" + c.meta.HostPlatform)
	}
	return dir, err
}

// Toolchains lists the entries of the collection that resolve to
// directories, in directory order. The metadata file is skipped.
func (c *Collection) Toolchains() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("list toolchain collection: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, err := c.toolchainDirRaw(e.Name()); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (c *Collection) toolchainDirRaw(raw string) (string, error) {
	candidate := filepath.Join(c.dir, raw)
	log.Debug("checking for toolchain", "dir", candidate)

	// Stat follows links, so a dangling link reads as absent.
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &ToolchainNotFoundError{Name: raw}
		}
		return "", fmt.Errorf("stat toolchain %s: %w", raw, err)
	}

	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", fmt.Errorf("canonicalize toolchain %s: %w", raw, err)
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("canonicalize toolchain %s: %w", raw, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat toolchain %s: %w", raw, err)
	}
	if !info.IsDir() {
		return "", &ToolchainNotFoundError{Name: raw}
	}
	return resolved, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidToolchainName, name)
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
