// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	RecursionLimitId Id = iota + 1
	InvalidInvocationId
	FlakeEvalFailedId
	ToolchainBuildFailedId
	NoToolchainSourceId
	OnlySelfOnPathId
	ToolchainNotFoundId
	ToolNotProvidedId
	CollectionLoadFailedId
	ConfigLoadFailedId
	ExecFailedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		slug     string      // name accepted by "wranglerctl explain"
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		extLinks []HttpLink  // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Slug() string {
	return i.slug
}

// Title returns the first Markdown heading of the message.
func (i *Issue) Title() string {
	for line := range strings.Lines(string(i.mdMsg)) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return i.slug
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.extLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	recursionLimitIssue = &Issue{
		id:   RecursionLimitId,
		slug: "recursion-limit",
		mdMsg: `
# Recursion limit reached!

Every hand-off increments ` + "`RUST_RECURSION_COUNT`" + `. The dispatcher refuses to
run once the counter reaches 20, because a tool kept resolving back to the
dispatcher itself.

## Things you can try:
- Make sure the toolchain in your flake actually provides the tool instead
  of a ` + "`nix-rust-wrangler`" + ` symlink
- Inspect the resolution without executing it:
~~~
$ wranglerctl resolve cargo --version
~~~
- Clear a stale counter inherited from a parent shell:
~~~
$ unset RUST_RECURSION_COUNT
~~~`,
		extLinks: []HttpLink{"https://rust-lang.github.io/rustup/environment-variables.html"},
	}

	invalidInvocationIssue = &Issue{
		id:   InvalidInvocationId,
		slug: "invalid-invocation",
		mdMsg: `
# Invalid invocation!

The dispatcher picks the tool from the name it was started as. When started
as ` + "`nix-rust-wrangler`" + ` the first argument must name the tool.

## Examples:
~~~
$ nix-rust-wrangler cargo build
$ nix-rust-wrangler +nightly rustc --version
$ cargo +beta test        # through a symlink named cargo
~~~`,
	}

	flakeEvalFailedIssue = &Issue{
		id:   FlakeEvalFailedId,
		slug: "flake-eval-failed",
		mdMsg: `
# Failed to evaluate the flake!

A ` + "`flake.nix`" + ` was found above the working directory, but Nix could not
evaluate it. The Nix error output is shown above.

## Things you can try:
- Check the flake on its own:
~~~
$ nix flake check
~~~
- Skip flakes for a single invocation:
~~~
$ NIX_RUST_WRANGLER_DISABLE_NIX=1 cargo build
~~~
- Point the dispatcher at another flake with ` + "`NIX_RUST_WRANGLER_FLAKE_PATH`",
	}

	toolchainBuildFailedIssue = &Issue{
		id:   ToolchainBuildFailedId,
		slug: "toolchain-build-failed",
		mdMsg: `
# Failed to build the flake's toolchain!

The flake declares a toolchain, but building it failed or produced no ` + "`out`" + `
output.

## Example configuration:
~~~nix
{
  outputs = { nixpkgs, ... }: {
    rustWrangler.x86_64-linux = {
      toolchain = nixpkgs.legacyPackages.x86_64-linux.rustc;
      toolchains.nightly = /* another derivation */;
    };
  };
}
~~~

## Things you can try:
- Build the attribute by hand to see the full log:
~~~
$ nix build .#rustWrangler.x86_64-linux.toolchain
~~~
- Set ` + "`rustWrangler.<system>.ignore = true`" + ` to fall back to other sources`,
	}

	noToolchainSourceIssue = &Issue{
		id:   NoToolchainSourceId,
		slug: "no-toolchain",
		mdMsg: `
# No toolchain available!

Neither the flake nor a toolchain collection could serve the invocation.

## Sources, in order:
1. ` + "`flake.nix`" + ` above the working directory (needs Nix with flakes)
2. The collection in ` + "`NIX_RUST_WRANGLER_TOOLCHAIN_COLLECTION`" + `
3. The ambient ` + "`PATH`" + ` (permissive mode only)

## Things you can try:
- Declare a toolchain or a dev shell in your flake
- Point ` + "`NIX_RUST_WRANGLER_TOOLCHAIN_COLLECTION`" + ` at a collection
- Allow the PATH fallback:
~~~cue
mode: "permissive"
~~~`,
	}

	onlySelfOnPathIssue = &Issue{
		id:   OnlySelfOnPathId,
		slug: "only-self-on-path",
		mdMsg: `
# The tool on PATH is the dispatcher itself!

The only candidate found on ` + "`PATH`" + ` resolves to ` + "`nix-rust-wrangler`" + `,
so handing off to it would loop.

## Things you can try:
- Did you forget to install a Rust toolchain inside the flake?
- Add the toolchain to the flake's dev shell ` + "`packages`",
	}

	toolchainNotFoundIssue = &Issue{
		id:   ToolchainNotFoundId,
		slug: "toolchain-not-found",
		mdMsg: `
# Toolchain not found!

The requested toolchain is not in the collection. Names are tried literally
and then with the host platform appended, e.g. ` + "`nightly`" + ` and
` + "`nightly-x86_64-unknown-linux-gnu`" + `. Without a name the first of
` + "`default`, `stable`, `beta`, `nightly`" + ` is used.

## Things you can try:
~~~
$ wranglerctl toolchains
~~~`,
	}

	toolNotProvidedIssue = &Issue{
		id:   ToolNotProvidedId,
		slug: "tool-not-provided",
		mdMsg: `
# The toolchain does not provide this tool!

The selected toolchain has no ` + "`bin/<tool>`" + `. Only ` + "`cargo`" + ` falls back to the
default toolchain, since custom toolchains often ship ` + "`rustc`" + ` alone.

## Things you can try:
- Add the component to the toolchain (e.g. rustfmt, clippy)
- Select another toolchain with ` + "`+name`" + ` or ` + "`NIX_RUST_WRANGLER_TOOLCHAIN`",
	}

	collectionLoadFailedIssue = &Issue{
		id:   CollectionLoadFailedId,
		slug: "collection-load-failed",
		mdMsg: `
# Failed to load the toolchain collection!

A collection directory needs a ` + "`collection.json`" + ` at its root:
~~~json
{ "hostPlatform": "x86_64-unknown-linux-gnu" }
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		slug: "config-load-failed",
		mdMsg: `
# Failed to load configuration!

The dispatcher keeps running with defaults when its config file is broken.
This entry explains the file itself.

## Example:
~~~cue
mode: "permissive"    // or "strict"
log_level: "warn"
nix: {
  disable: false
  executable: "$HOME/.nix-profile/bin/nix"
}
collection: path: "$HOME/.local/share/rust-toolchains"
~~~

## Things you can try:
~~~
$ wranglerctl config validate
~~~`,
	}

	execFailedIssue = &Issue{
		id:   ExecFailedId,
		slug: "exec-failed",
		mdMsg: `
# Failed to execute the tool!

The tool was resolved, but the operating system refused to run it.

## Common causes:
- The file is not executable, or its interpreter is missing
- The toolchain was built for another platform`,
	}

	issues = map[Id]*Issue{
		recursionLimitIssue.Id():       recursionLimitIssue,
		invalidInvocationIssue.Id():    invalidInvocationIssue,
		flakeEvalFailedIssue.Id():      flakeEvalFailedIssue,
		toolchainBuildFailedIssue.Id(): toolchainBuildFailedIssue,
		noToolchainSourceIssue.Id():    noToolchainSourceIssue,
		onlySelfOnPathIssue.Id():       onlySelfOnPathIssue,
		toolchainNotFoundIssue.Id():    toolchainNotFoundIssue,
		toolNotProvidedIssue.Id():      toolNotProvidedIssue,
		collectionLoadFailedIssue.Id(): collectionLoadFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		execFailedIssue.Id():           execFailedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, iss := range issues {
		values = append(values, iss)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id - b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by slug.
func Lookup(slug string) (*Issue, bool) {
	for _, iss := range issues {
		if iss.slug == slug {
			return iss, true
		}
	}
	return nil, false
}
