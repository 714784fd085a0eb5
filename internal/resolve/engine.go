// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/invowk/wrangler/internal/collection"
	"github.com/invowk/wrangler/internal/invocation"
	"github.com/invowk/wrangler/internal/invoker"
	"github.com/invowk/wrangler/internal/nix"
)

const (
	toolchainAttr  = "toolchain"
	toolchainsAttr = "toolchains"
	buildOutput    = "out"
)

var (
	// ErrMissingToolchainDerivation is returned when a build produced no
	// "out" output.
	ErrMissingToolchainDerivation = errors.New("build did not result in a usable toolchain derivation")
	// ErrUnknownExecutable is returned when re-entry is required but the
	// dispatcher's own executable could not be determined.
	ErrUnknownExecutable = errors.New("unable to determine own executable")

	plainAttrName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_'-]*$`)
)

type (
	// Builder is the part of nix.Command the engine needs.
	Builder interface {
		Build(ctx context.Context, flake nix.Flake, attr string) ([]nix.BuildOutput, error)
		DevelopArgv(flake nix.Flake, shell, self string) []string
		HostPrefix() []string
	}

	// Engine resolves invocations against one flake.
	Engine struct {
		builder Builder
		flake   nix.Flake
		self    string
	}
)

// NewEngine returns an Engine for flake. self is the dispatcher's own
// executable, used for dev shell re-entry; it may be empty if unknown.
func NewEngine(builder Builder, flake nix.Flake, self string) *Engine {
	return &Engine{builder: builder, flake: flake, self: self}
}

// Resolve returns the invoker serving inv. A nil invoker with a nil error
// means the flake declined and the search continues elsewhere.
func (e *Engine) Resolve(ctx context.Context, insp nix.Inspection, inv invocation.Invocation) (*invoker.Invoker, error) {
	var fallbackDir string

	if cfg := insp.Config; cfg != nil {
		if cfg.Value.Ignore {
			log.Info("flake configuration asks to be ignored", "at", cfg.At)
			return nil, nil
		}

		if name, ok := inv.ToolchainOverride().Name(); ok {
			if kind, found := cfg.Value.Toolchains[name]; found {
				if kind.IsBuildable() {
					r, dir, err := e.build(ctx, cfg.At, toolchainsAttr+"."+AttrName(name), inv)
					if r != nil || err != nil {
						return r, err
					}
					log.Debug("toolchain selected via override does not provide cargo", "toolchain", name)
					fallbackDir = dir
				} else {
					log.Warn("toolchain attribute is not a derivation, ignoring", "toolchain", name, "kind", kind)
				}
			}

			if fallbackDir == "" {
				log.Warn("flake does not provide toolchain override, continuing search outside of the flake", "toolchain", name)
				return nil, nil
			}
		}

		switch tc := cfg.Value.Toolchain; {
		case tc != nil && tc.IsBuildable():
			r, dir, err := e.build(ctx, cfg.At, toolchainAttr, inv)
			if r != nil || err != nil {
				return r, err
			}
			log.Debug("default toolchain does not provide cargo")
			fallbackDir = dir
		case tc != nil:
			log.Warn("toolchain attribute is not a derivation, ignoring", "kind", tc)
			fallthrough
		default:
			if len(cfg.Value.Toolchains) > 0 {
				log.Warn("no default toolchain found, but overrides are defined. " +
					"Did you mean to define a default toolchain? Continuing search outside of the flake.")
			}
		}
	}

	var shell string
	switch {
	case nix.BuildableShell(insp.RustWranglerDevShell):
		shell = nix.DevShellName
	case nix.BuildableShell(insp.DefaultDevShell):
	default:
		return nil, nil
	}

	if e.self == "" {
		return nil, ErrUnknownExecutable
	}
	argv := e.builder.DevelopArgv(e.flake, shell, e.self)
	log.Debug("re-entering through dev shell", "shell", shell, "fallback", fallbackDir)
	return invoker.FromDevelopProxy(argv, inv.Tool(), inv.ToolchainOverride(), fallbackDir).
		WithFlake(e.flake.Path()).
		WithHostSpawn(len(e.builder.HostPrefix())), nil
}

// build builds at.attr and locates the invoked tool in its "out" output.
// A toolchain lacking cargo is reported through dir, with nil invoker and
// nil error, so the caller can keep it as a fallback; any other failure
// is returned.
func (e *Engine) build(ctx context.Context, at, attr string, inv invocation.Invocation) (r *invoker.Invoker, dir string, err error) {
	outputs, err := e.builder.Build(ctx, e.flake, at+"."+attr)
	if err != nil {
		return nil, "", err
	}

	for _, o := range outputs {
		out, ok := o.Outputs[buildOutput]
		if !ok {
			continue
		}
		r, err := invoker.FromToolchainDir(out, inv.Tool())
		var np *collection.ToolNotProvidedError
		if errors.As(err, &np) && inv.Tool().IsPackageManager() {
			return nil, np.Path, nil
		}
		if err != nil {
			return nil, "", err
		}
		return r.WithFlake(e.flake.Path()), "", nil
	}
	return nil, "", ErrMissingToolchainDerivation
}

// AttrName renders name as a Nix attribute path element, quoting it
// unless it is a plain identifier.
func AttrName(name string) string {
	if plainAttrName.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}
