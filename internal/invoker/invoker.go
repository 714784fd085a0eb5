// SPDX-License-Identifier: MPL-2.0

package invoker

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/invowk/wrangler/internal/collection"
	"github.com/invowk/wrangler/internal/handoff"
	"github.com/invowk/wrangler/internal/invocation"
	"github.com/invowk/wrangler/pkg/platform"
)

type (
	// Invoker describes a pending hand-off. It is immutable; the With*
	// methods return modified copies.
	Invoker struct {
		program      string
		leadingArgs  []string
		toolchainDir string
		flakePath    string
		proxy        *developProxy
		// hostSpawn is the number of leading argv entries, program included,
		// that escape a sandbox without passing the environment on.
		hostSpawn int
	}

	// developProxy is the state forwarded to a "nix develop" re-entry.
	developProxy struct {
		toolchain         string
		fallbackToolchain string
	}

	// Environment is the process state a hand-off is planned against.
	Environment struct {
		// Environ is the inherited environment in os.Environ form.
		Environ []string
		// Context is the cross-process state decoded at startup.
		Context handoff.Context
		// Platform selects the library search path convention.
		Platform platform.Tag
		// Home expands "~/" in library fallback directories.
		Home string
		// LookPath resolves a bare program name; nil means exec.LookPath.
		LookPath func(file string) (string, error)
	}

	// HandOff is a fully planned process replacement.
	HandOff struct {
		Path string
		Argv []string
		Env  []string
	}
)

// FromToolchainDir finds tool in dir/bin. The executable is canonicalized
// when possible and must be a regular file or a link.
func FromToolchainDir(dir string, tool invocation.Tool) (*Invoker, error) {
	exe := filepath.Join(dir, "bin", tool.ExecutableName())
	if canonical, err := filepath.EvalSymlinks(exe); err == nil {
		exe = canonical
	}

	info, err := os.Lstat(exe)
	if err != nil || !(info.Mode().IsRegular() || info.Mode()&os.ModeSymlink != 0) {
		return nil, &collection.ToolNotProvidedError{Path: dir, Tool: tool.Name()}
	}
	return FromToolAndDir(exe, dir), nil
}

// FromToolAndDir hands off to exe with dir's libraries visible.
func FromToolAndDir(exe, dir string) *Invoker {
	return &Invoker{program: exe, toolchainDir: dir}
}

// FromExecutable hands off to exe without any toolchain adjustments.
func FromExecutable(exe string) *Invoker {
	return &Invoker{program: exe}
}

// FromDevelopProxy hands off to a "nix develop" command line that runs the
// dispatcher again as the develop proxy. The tool name is appended after
// argv. The override and the fallback directory are forwarded, and the
// re-entered process is marked as inside the develop shell.
func FromDevelopProxy(argv []string, tool invocation.Tool, override invocation.ToolchainOverride, fallbackDir string) *Invoker {
	proxy := &developProxy{fallbackToolchain: fallbackDir}
	if name, ok := override.Name(); ok {
		proxy.toolchain = name
	}
	leading := append(slices.Clone(argv[1:]), tool.ExecutableName())
	return &Invoker{program: argv[0], leadingArgs: leading, proxy: proxy}
}

// WithFlake returns a copy that forwards the flake.nix path.
func (i *Invoker) WithFlake(path string) *Invoker {
	c := *i
	c.flakePath = path
	return &c
}

// WithHostSpawn returns a copy whose first n argv entries are a sandbox
// escape such as "flatpak-spawn --host". The forwarded hand-off variables
// are then also passed as flags right after the escape.
func (i *Invoker) WithHostSpawn(n int) *Invoker {
	c := *i
	c.hostSpawn = max(0, min(n, 1+len(i.leadingArgs)))
	return &c
}

// Program returns the program handed off to, unresolved.
func (i *Invoker) Program() string { return i.program }

// ToolchainDir returns the toolchain whose libraries are exposed, if any.
func (i *Invoker) ToolchainDir() string { return i.toolchainDir }

// IsDevelopProxy reports whether the hand-off re-enters via nix develop.
func (i *Invoker) IsDevelopProxy() bool { return i.proxy != nil }

// Plan assembles the hand-off for args. PATH is never modified.
func (i *Invoker) Plan(args []string, env Environment) (HandOff, error) {
	path, err := i.resolveProgram(env.LookPath)
	if err != nil {
		return HandOff{}, err
	}

	vars := environMap(env.Environ)
	if i.toolchainDir != "" {
		ConfigureToolchain(vars, i.toolchainDir, env.Platform, env.Home)
	}

	hctx := env.Context
	if i.flakePath != "" {
		hctx = hctx.WithFlakePath(i.flakePath)
	}
	if i.proxy != nil {
		hctx = hctx.EnteringDevelop().WithToolchain(i.proxy.toolchain)
		if i.proxy.fallbackToolchain != "" {
			hctx = hctx.WithFallbackToolchain(i.proxy.fallbackToolchain)
		}
	}
	forwarded := make(map[string]string)
	if err := hctx.Apply(forwarded); err != nil {
		return HandOff{}, err
	}
	maps.Copy(vars, forwarded)

	argv := make([]string, 0, 1+len(i.leadingArgs)+len(forwarded)+len(args))
	argv = append(argv, i.program)
	if i.hostSpawn > 0 {
		escape := i.hostSpawn - 1
		argv = append(argv, i.leadingArgs[:escape]...)
		for _, k := range slices.Sorted(maps.Keys(forwarded)) {
			argv = append(argv, platform.HostSpawnEnvArg(k, forwarded[k]))
		}
		argv = append(argv, i.leadingArgs[escape:]...)
	} else {
		argv = append(argv, i.leadingArgs...)
	}
	argv = append(argv, args...)

	return HandOff{Path: path, Argv: argv, Env: environList(vars)}, nil
}

func (i *Invoker) resolveProgram(lookPath func(string) (string, error)) (string, error) {
	if strings.ContainsRune(i.program, filepath.Separator) {
		return i.program, nil
	}
	if lookPath == nil {
		lookPath = defaultLookPath
	}
	path, err := lookPath(i.program)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", i.program, err)
	}
	return path, nil
}

// ConfigureToolchain prefixes the platform's library search path with the
// toolchain's lib directory. On platforms whose variable is a fallback
// list, the conventional directories are appended when it was unset.
func ConfigureToolchain(vars map[string]string, toolchainDir string, tag platform.Tag, home string) {
	lp := tag.LibraryPath()
	current := vars[lp.Var]

	dirs := []string{filepath.Join(toolchainDir, "lib")}
	if lp.Fallback && current == "" {
		for _, d := range lp.FallbackDirs {
			if rest, ok := strings.CutPrefix(d, "~/"); ok {
				if home == "" {
					continue
				}
				d = filepath.Join(home, rest)
			}
			dirs = append(dirs, d)
		}
	}
	vars[lp.Var] = PrependPaths(current, dirs...)
}

// PrependPaths joins dirs in front of the entries of the search list current.
func PrependPaths(current string, dirs ...string) string {
	list := slices.Clone(dirs)
	if current != "" {
		list = append(list, filepath.SplitList(current)...)
	}
	return strings.Join(list, string(os.PathListSeparator))
}

func environMap(environ []string) map[string]string {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = v
		}
	}
	return vars
}

func environList(vars map[string]string) []string {
	keys := slices.Sorted(maps.Keys(vars))
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	return env
}
