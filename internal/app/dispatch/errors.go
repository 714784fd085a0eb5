// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"

	"github.com/invowk/wrangler/internal/collection"
	"github.com/invowk/wrangler/internal/handoff"
	"github.com/invowk/wrangler/internal/invocation"
	"github.com/invowk/wrangler/internal/invoker"
	"github.com/invowk/wrangler/internal/issue"
	"github.com/invowk/wrangler/internal/nix"
	"github.com/invowk/wrangler/internal/resolve"
)

// Actionable wraps a Run or Exec failure with the operation that failed,
// a catalog entry and suggestions. Errors that are already actionable are
// returned as is.
func Actionable(err error) *issue.ActionableError {
	if err == nil {
		return nil
	}
	if ae, ok := errors.AsType[*issue.ActionableError](err); ok {
		return ae
	}

	ctx := issue.NewErrorContext().Wrap(err)
	switch {
	case errors.Is(err, handoff.ErrRecursionLimit):
		ctx.WithOperation("start tool").
			WithIssue(issue.RecursionLimitId).
			WithSuggestion("Unset " + handoff.EnvRecursionCount + " if it was inherited from a parent shell")
	case errors.Is(err, invocation.ErrMissingArgv0),
		errors.Is(err, invocation.ErrMissingTool),
		errors.Is(err, invocation.ErrInvalidToolName),
		errors.Is(err, invocation.ErrEmptyToolchainName),
		errors.Is(err, invocation.ErrToolchainEnvNameNotUnicode),
		errors.Is(err, collection.ErrInvalidToolchainName),
		errors.Is(err, ErrMissingProxyCommand):
		ctx.WithOperation("parse invocation").
			WithIssue(issue.InvalidInvocationId)
	case errors.Is(err, ErrFlakeInspection):
		ctx.WithOperation("evaluate flake").
			WithIssue(issue.FlakeEvalFailedId).
			WithSuggestion("Set " + nix.EnvDisable + "=1 to bypass the flake")
	case errors.Is(err, resolve.ErrMissingToolchainDerivation),
		errors.Is(err, nix.ErrEvalFailed),
		errors.Is(err, nix.ErrParse):
		ctx.WithOperation("build toolchain").
			WithIssue(issue.ToolchainBuildFailedId)
	case errors.Is(err, ErrOnlySelfOnPath):
		ctx.WithOperation("find tool").
			WithIssue(issue.OnlySelfOnPathId).
			WithSuggestion("Did you forget to install a rust toolchain inside the flake?")
	case errors.Is(err, ErrNoToolchain):
		ctx.WithOperation("find toolchain").
			WithIssue(issue.NoToolchainSourceId).
			WithSuggestions(
				"Declare a toolchain or dev shell in flake.nix",
				"Set "+collection.EnvCollection+" to a toolchain collection",
			)
	case errors.Is(err, collection.ErrToolchainNotFound):
		ctx.WithOperation("find toolchain").
			WithIssue(issue.ToolchainNotFoundId).
			WithSuggestion("Run 'wranglerctl toolchains' to list the installed toolchains")
	case errors.Is(err, collection.ErrToolNotProvided):
		ctx.WithOperation("find tool").
			WithIssue(issue.ToolNotProvidedId)
	case errors.Is(err, invoker.ErrExecFailed):
		ctx.WithOperation("execute tool").
			WithIssue(issue.ExecFailedId)
	case errors.Is(err, resolve.ErrUnknownExecutable), errors.Is(err, ErrFlakeResolution):
		ctx.WithOperation("create tool invoker from flake")
	default:
		ctx.WithOperation("dispatch tool")
	}
	return ctx.Build()
}
