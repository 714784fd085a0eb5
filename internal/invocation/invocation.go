// SPDX-License-Identifier: MPL-2.0

package invocation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/invowk/wrangler/internal/handoff"
)

// Override sources, in ascending order of precedence.
const (
	OverrideNone OverrideSource = iota
	OverrideFromEnvironment
	OverrideFromArgument
)

var (
	// ErrMissingArgv0 is returned when the argument vector is empty.
	ErrMissingArgv0 = errors.New("missing argv0")
	// ErrMissingTool is returned when the canonical name is used without naming a tool.
	ErrMissingTool = errors.New("no tool specified which should be invoked")
	// ErrInvalidToolName is returned when an argument has no usable file stem.
	ErrInvalidToolName = errors.New("the tool specified is not a valid tool name")
	// ErrToolchainEnvNameNotUnicode is returned when a toolchain variable is not valid UTF-8.
	ErrToolchainEnvNameNotUnicode = errors.New("the toolchain specified via the environment is not valid Unicode")
	// ErrEmptyToolchainName is returned for a bare "+" argument.
	ErrEmptyToolchainName = errors.New("toolchain override argument names no toolchain")
)

type (
	// OverrideSource tells where a toolchain override came from.
	OverrideSource uint8

	// ToolchainOverride is None, FromArgument(name) or FromEnvironment(name).
	ToolchainOverride struct {
		source OverrideSource
		name   string
	}

	// Invocation is what this process was asked to do. It is derived once at
	// startup and never modified; fields are reached through accessors.
	Invocation struct {
		tool          Tool
		override      ToolchainOverride
		remainingArgs []string
	}
)

// NoOverride returns the None override.
func NoOverride() ToolchainOverride { return ToolchainOverride{} }

// OverrideFromArg returns an override requested with a leading "+name".
func OverrideFromArg(name string) ToolchainOverride {
	return ToolchainOverride{source: OverrideFromArgument, name: name}
}

// OverrideFromEnv returns an override taken from the environment.
func OverrideFromEnv(name string) ToolchainOverride {
	return ToolchainOverride{source: OverrideFromEnvironment, name: name}
}

// Source returns where the override came from.
func (o ToolchainOverride) Source() OverrideSource { return o.source }

// Name returns the toolchain name, and false for the None override.
func (o ToolchainOverride) Name() (string, bool) {
	if o.source == OverrideNone {
		return "", false
	}
	return o.name, true
}

// String implements fmt.Stringer.
func (o ToolchainOverride) String() string {
	switch o.source {
	case OverrideFromArgument:
		return "argument(" + o.name + ")"
	case OverrideFromEnvironment:
		return "environment(" + o.name + ")"
	default:
		return "none"
	}
}

// New assembles an Invocation directly. Derive is the production path;
// New exists for callers that already know the tool, such as wranglerctl.
func New(tool Tool, override ToolchainOverride, args []string) Invocation {
	return Invocation{tool: tool, override: override, remainingArgs: slices.Clone(args)}
}

// Tool returns the tool to dispatch to.
func (i Invocation) Tool() Tool { return i.tool }

// ToolchainOverride returns the requested toolchain, if any.
func (i Invocation) ToolchainOverride() ToolchainOverride { return i.override }

// RemainingArgs returns a copy of the arguments forwarded verbatim.
func (i Invocation) RemainingArgs() []string { return slices.Clone(i.remainingArgs) }

// Derive builds the Invocation from argv (including argv[0]) and the
// environment lookup.
func Derive(argv []string, lookup handoff.LookupFunc) (Invocation, error) {
	if len(argv) == 0 {
		return Invocation{}, ErrMissingArgv0
	}

	tool, err := toolFromArg(argv[0])
	if err != nil {
		return Invocation{}, err
	}
	rest := argv[1:]

	override := NoOverride()
	if len(rest) > 0 {
		next := rest[0]
		if name, ok := strings.CutPrefix(next, "+"); ok {
			if name == "" {
				return Invocation{}, ErrEmptyToolchainName
			}
			override = OverrideFromArg(name)
			rest = rest[1:]
		} else if tool.Kind() == ToolWrangler {
			if tool, err = toolFromArg(next); err != nil {
				return Invocation{}, err
			}
			rest = rest[1:]
		}
	} else if tool.Kind() == ToolWrangler {
		return Invocation{}, ErrMissingTool
	}

	if override.Source() == OverrideFromArgument && tool.Kind() == ToolWrangler {
		if len(rest) == 0 {
			return Invocation{}, ErrMissingTool
		}
		if tool, err = toolFromArg(rest[0]); err != nil {
			return Invocation{}, err
		}
		rest = rest[1:]
	}

	if override.Source() == OverrideNone {
		for _, key := range []string{handoff.EnvToolchain, handoff.EnvRustupToolchain} {
			if override, err = overrideFromEnv(lookup, key); err != nil {
				return Invocation{}, err
			}
			if override.Source() != OverrideNone {
				break
			}
		}
	}

	return Invocation{tool: tool, override: override, remainingArgs: slices.Clone(rest)}, nil
}

func toolFromArg(arg string) (Tool, error) {
	stem, ok := fileStem(arg)
	if !ok {
		return Tool{}, fmt.Errorf("%w: %q", ErrInvalidToolName, arg)
	}
	return ToolFromName(stem), nil
}

// overrideFromEnv treats an empty value like an unset one; an empty
// toolchain name would otherwise resolve to the collection root.
func overrideFromEnv(lookup handoff.LookupFunc, key string) (ToolchainOverride, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return NoOverride(), nil
	}
	if !utf8.ValidString(v) {
		return NoOverride(), fmt.Errorf("%w: %s", ErrToolchainEnvNameNotUnicode, key)
	}
	return OverrideFromEnv(v), nil
}
