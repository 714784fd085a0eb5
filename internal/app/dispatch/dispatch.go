// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/wrangler/internal/collection"
	"github.com/invowk/wrangler/internal/config"
	"github.com/invowk/wrangler/internal/handoff"
	"github.com/invowk/wrangler/internal/invocation"
	"github.com/invowk/wrangler/internal/invoker"
	"github.com/invowk/wrangler/internal/nix"
	"github.com/invowk/wrangler/internal/resolve"
	"github.com/invowk/wrangler/pkg/platform"
)

const (
	// SourceDevelopProxy is a re-entry from inside "nix develop".
	SourceDevelopProxy Source = "develop-proxy"
	// SourceFlake is a toolchain or dev shell declared by the project flake.
	SourceFlake Source = "flake"
	// SourceCollection is a toolchain from the local collection.
	SourceCollection Source = "collection"
	// SourcePath is a tool found on the ambient search path.
	SourcePath Source = "path"
)

var (
	// ErrMissingProxyCommand is returned when the develop proxy is started
	// without a command to run.
	ErrMissingProxyCommand = errors.New("develop proxy invoked without a command")
	// ErrFlakeInspection is returned when the flake cannot be evaluated.
	ErrFlakeInspection = errors.New("failed to evaluate flake")
	// ErrFlakeResolution is returned when the flake declares a toolchain
	// that cannot be used.
	ErrFlakeResolution = errors.New("failed to create tool invoker from flake")
	// ErrNoToolchain is returned when every source is exhausted.
	ErrNoToolchain = errors.New("no toolchain found in flake and no tool found in system path")
	// ErrOnlySelfOnPath is returned when the search path only offers the
	// dispatcher itself under the tool's name.
	ErrOnlySelfOnPath = errors.New("tool found in system path is nix-rust-wrangler again")
)

type (
	// Source names where a plan came from.
	Source string

	// Options are the configurable parts of the driver.
	Options struct {
		Mode           config.Mode
		DisableNix     bool
		NixExecutable  string
		CollectionPath string
	}

	// Plan is the outcome of a dispatch: the source that served the
	// invocation and the fully planned hand-off.
	Plan struct {
		Source     Source
		Invocation invocation.Invocation
		Invoker    *invoker.Invoker
		HandOff    invoker.HandOff
	}

	// NixFinder locates and probes nix.
	NixFinder func(ctx context.Context, opts ...nix.Option) (*nix.Command, error)

	// Dispatcher runs the source search against a fixed process state.
	Dispatcher struct {
		opts     Options
		environ  []string
		lookup   handoff.LookupFunc
		workDir  string
		self     string
		platform platform.Tag
		home     string
		lookPath func(string) (string, error)
		findNix  NixFinder
	}

	// Option configures a Dispatcher.
	Option func(*Dispatcher)
)

// WithEnviron replaces the process environment, in os.Environ form.
func WithEnviron(environ []string) Option {
	return func(d *Dispatcher) {
		d.environ = environ
		d.lookup = lookupIn(environ)
	}
}

// WithWorkDir sets the directory the flake search starts from.
func WithWorkDir(dir string) Option {
	return func(d *Dispatcher) { d.workDir = dir }
}

// WithSelf sets the dispatcher's own executable.
func WithSelf(path string) Option {
	return func(d *Dispatcher) { d.self = path }
}

// WithPlatform overrides the host platform.
func WithPlatform(tag platform.Tag) Option {
	return func(d *Dispatcher) { d.platform = tag }
}

// WithHome sets the home directory used for library fallback directories.
func WithHome(home string) Option {
	return func(d *Dispatcher) { d.home = home }
}

// WithLookPath overrides resolution of bare program names.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(d *Dispatcher) { d.lookPath = fn }
}

// WithNixFinder overrides how nix is located.
func WithNixFinder(fn NixFinder) Option {
	return func(d *Dispatcher) { d.findNix = fn }
}

// New returns a Dispatcher for the current process unless overridden.
func New(opts Options, options ...Option) *Dispatcher {
	d := &Dispatcher{
		opts:     opts,
		environ:  os.Environ(),
		lookup:   os.LookupEnv,
		platform: platform.Host(),
		findNix:  nix.Find,
	}
	if wd, err := os.Getwd(); err == nil {
		d.workDir = wd
	}
	if self, err := os.Executable(); err == nil {
		d.self = self
	}
	if home, err := os.UserHomeDir(); err == nil {
		d.home = home
	}
	for _, o := range options {
		o(d)
	}
	return d
}

// Run resolves argv into a Plan. Sources are tried strictly in order and
// the first one that serves the invocation wins.
func (d *Dispatcher) Run(ctx context.Context, argv []string) (Plan, error) {
	hctx := handoff.FromEnv(d.lookup)
	if err := hctx.Recursion().Check(); err != nil {
		return Plan{}, err
	}

	inv, err := invocation.Derive(argv, d.lookup)
	if err != nil {
		return Plan{}, err
	}
	log.Debug("derived invocation", "tool", inv.Tool(), "override", inv.ToolchainOverride(), "args", len(inv.RemainingArgs()))

	env := invoker.Environment{
		Environ:  d.environ,
		Context:  hctx,
		Platform: d.platform,
		Home:     d.home,
		LookPath: d.lookPath,
	}

	if inv.Tool().Kind() == invocation.ToolDevelopProxy {
		return d.developProxy(inv, env)
	}

	if inv.Tool().Kind() == invocation.ToolOther {
		log.Warn("unknown tool invocation", "tool", inv.Tool().Name())
	}

	if r, err := d.fromFlake(ctx, inv, hctx, argv[0]); err != nil {
		return Plan{}, err
	} else if r != nil {
		return d.plan(SourceFlake, inv, r, env)
	}

	coll := d.findCollection()
	if coll == nil {
		r, err := d.fromSearchPath(inv)
		if err != nil {
			return Plan{}, err
		}
		return d.plan(SourcePath, inv, r, env)
	}

	name, _ := inv.ToolchainOverride().Name()
	found, err := coll.FindTool(inv.Tool().ExecutableName(), name, inv.Tool().IsPackageManager())
	if err != nil {
		return Plan{}, err
	}
	return d.plan(SourceCollection, inv, invoker.FromToolAndDir(found.Executable, found.Dir), env)
}

func (d *Dispatcher) plan(src Source, inv invocation.Invocation, r *invoker.Invoker, env invoker.Environment) (Plan, error) {
	h, err := r.Plan(inv.RemainingArgs(), env)
	if err != nil {
		return Plan{}, err
	}
	log.Debug("dispatching", "source", src, "program", h.Path)
	return Plan{Source: src, Invocation: inv, Invoker: r, HandOff: h}, nil
}

// developProxy runs the remaining arguments as a literal command inside
// the dev shell. The fallback toolchain, if forwarded, only contributes
// its libraries.
func (d *Dispatcher) developProxy(inv invocation.Invocation, env invoker.Environment) (Plan, error) {
	args := inv.RemainingArgs()
	if len(args) == 0 {
		return Plan{}, ErrMissingProxyCommand
	}

	r := invoker.FromExecutable(args[0])
	if fallback := env.Context.FallbackToolchain(); fallback != "" {
		log.Debug("applying fallback toolchain", "dir", fallback)
		r = invoker.FromToolAndDir(args[0], fallback)
	}

	h, err := r.Plan(args[1:], env)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Source: SourceDevelopProxy, Invocation: inv, Invoker: r, HandOff: h}, nil
}

// fromFlake consults the project flake. A nil invoker with a nil error
// means the source is unavailable or declined. The flake search falls back
// to the directory of argv0 as invoked, not of the resolved binary, so a
// symlink placed inside a project finds that project.
func (d *Dispatcher) fromFlake(ctx context.Context, inv invocation.Invocation, hctx handoff.Context, argv0 string) (*invoker.Invoker, error) {
	cmd := d.nixCommand(ctx, hctx)
	if cmd == nil {
		return nil, nil
	}

	flake, ok := nix.FindFlake(d.lookup, d.workDir, d.invokedAs(argv0))
	if !ok {
		log.Debug("no flake found")
		return nil, nil
	}
	log.Info("using flake", "path", flake.Path())

	system, err := d.platform.NixSystem()
	if err != nil {
		log.Warn("flake support unavailable on this platform", "err", err)
		return nil, nil
	}

	insp, err := cmd.Inspect(ctx, flake, system)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFlakeInspection, err)
	}

	r, err := resolve.NewEngine(cmd, flake, d.self).Resolve(ctx, insp, inv)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFlakeResolution, err)
	}
	return r, nil
}

// nixCommand returns a ready nix, or nil when the flake source must be
// skipped.
func (d *Dispatcher) nixCommand(ctx context.Context, hctx handoff.Context) *nix.Command {
	switch {
	case hctx.InsideDevelop():
		log.Debug("already dispatched into flake, skipping nix command search to prevent infinite recursion")
		return nil
	case d.opts.DisableNix:
		log.Info("nix command disabled", "env", nix.EnvDisable)
		return nil
	}

	var opts []nix.Option
	if d.opts.NixExecutable != "" {
		opts = append(opts, nix.WithExecutable(d.opts.NixExecutable))
	}
	cmd, err := d.findNix(ctx, opts...)
	if err != nil {
		log.Info("no nix command found, flake support will be disabled", "err", err)
		return nil
	}
	if !cmd.Ready() {
		log.Info("nix found, but it is not usable or flakes are not enabled", "nix", cmd.Executable())
		return nil
	}
	log.Info("nix is available with flakes enabled", "nix", cmd.Executable())
	return cmd
}

func (d *Dispatcher) findCollection() *collection.Collection {
	if d.opts.CollectionPath != "" {
		return collection.Load(d.opts.CollectionPath)
	}
	return collection.Find(d.lookup)
}

// fromSearchPath is the last resort when no collection is configured.
func (d *Dispatcher) fromSearchPath(inv invocation.Invocation) (*invoker.Invoker, error) {
	if d.opts.Mode == config.ModeStrict {
		return nil, ErrNoToolchain
	}

	pathList, _ := d.lookup("PATH")
	exe, sawSelf := SearchPath(pathList, inv.Tool().ExecutableName(), d.self)
	switch {
	case exe != "":
		log.Debug("found tool in system path", "tool", inv.Tool().Name(), "path", exe)
		return invoker.FromExecutable(exe), nil
	case sawSelf:
		return nil, ErrOnlySelfOnPath
	default:
		return nil, ErrNoToolchain
	}
}

// invokedAs anchors a relative argv0 at the working directory.
func (d *Dispatcher) invokedAs(argv0 string) string {
	if filepath.IsAbs(argv0) || d.workDir == "" {
		return argv0
	}
	return filepath.Join(d.workDir, argv0)
}

func lookupIn(environ []string) handoff.LookupFunc {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// canonical resolves links and makes path absolute, returning path
// unchanged if either step fails.
func canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}
