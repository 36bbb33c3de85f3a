// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry.
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	WorkspaceNotFoundId
	DescriptorInvalidId
	UnresolvableVersionId
	ArtifactNotFoundId
	UpstreamBuildFailedId
	AbortedUpstreamId
	MultipleParentsId
	DependencyCycleId
	IncompleteCoordinateId
	NothingToPackageId
	EmptyMergeId
	ArchiveIOId
)

type (
	MarkdownMsg string

	HttpLink string

	// Issue is a Markdown explanation of a failure class with remediation steps.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id { return i.id }

func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// Render renders the entry for the terminal. stylePath is a glamour style name
// or file; empty selects the standard style.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	if stylePath == "" {
		stylePath = "auto"
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

sdukit reads, in order of precedence:
1. the file passed with ` + "`--config`" + `
2. ` + "`sdukit.cue`" + ` in the working directory
3. ` + "`$XDG_CONFIG_HOME/sdukit/config.cue`" + `

Values can be overridden with ` + "`SDUKIT_*`" + ` environment variables.

## Things you can try:
- Print the effective configuration:
~~~
$ sdukit config show
~~~
- Check the file against this shape:
~~~cue
repository: {
  local: "/home/me/.sdukit/repository"
}
build: output_dir: "target"
~~~`,
	}

	workspaceNotFoundIssue = &Issue{
		id: WorkspaceNotFoundId,
		mdMsg: `
# No module descriptor found!

Every module directory needs an ` + "`sdumod.cue`" + ` descriptor.

## Things you can try:
- Run the command from the workspace root, or pass it explicitly:
~~~
$ sdukit assemble ./my-product
~~~
- Check that every entry in ` + "`modules`" + ` names an existing directory.`,
	}

	descriptorInvalidIssue = &Issue{
		id: DescriptorInvalidId,
		mdMsg: `
# Invalid module descriptor!

A descriptor failed schema validation. The message above names the file and field.

## Example descriptor:
~~~cue
group:     "com.example"
artifact:  "shop-profile"
version:   "1.0.0"
packaging: "dar"
dependencies: [
  {group: "com.example", artifact: "catalog", version: "[1.0,2.0)", packaging: "feature"},
]
~~~`,
	}

	unresolvableVersionIssue = &Issue{
		id: UnresolvableVersionId,
		mdMsg: `
# No version satisfies the range!

A dependency declares a version range and none of the versions in the
repository falls inside it.

## Things you can try:
- Publish a matching version to the repository.
- Widen the range, e.g. ` + "`[1.0,)`" + ` instead of ` + "`[1.0,2.0)`" + `.
- Run with ` + "`--verbose`" + ` to see the versions that were considered.`,
	}

	artifactNotFoundIssue = &Issue{
		id: ArtifactNotFoundId,
		mdMsg: `
# Artifact not found!

The artifact is neither part of the current build nor present in any
configured repository.

## Things you can try:
- Check ` + "`repository.local`" + ` and ` + "`repository.s3`" + ` in your configuration.
- Build and publish the missing module first.
- Exclude it if it is not needed:
~~~
$ sdukit assemble --exclusions com.example:unused
~~~`,
	}

	upstreamBuildFailedIssue = &Issue{
		id: UpstreamBuildFailedId,
		mdMsg: `
# An upstream module failed to build!

A module this build depends on is part of the same build session and
reported a failure. Fix that module first; its log explains why.`,
	}

	abortedUpstreamIssue = &Issue{
		id: AbortedUpstreamId,
		mdMsg: `
# Build session aborted!

The build session was aborted while waiting for a sibling module, either
by the orchestrator or because the command was interrupted.

## Things you can try:
- Remove a stale ` + "`.sdukit/abort`" + ` marker from the workspace root.
- Re-run the build.`,
	}

	multipleParentsIssue = &Issue{
		id: MultipleParentsId,
		mdMsg: `
# Module declares more than one profile!

A module may depend on at most one profile (` + "`dar`" + `) module, because the
profile is its parent in the load order.

## Things you can try:
- Remove one of the profile dependencies.
- Move shared features into a single profile.`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

The load order must be a tree. The message above lists the modules that
form the cycle; break it by removing one of the dependencies.`,
	}

	incompleteCoordinateIssue = &Issue{
		id: IncompleteCoordinateId,
		mdMsg: `
# Module coordinate is incomplete!

Every packaged module needs a group, an artifact id and a version, either
declared directly or inherited from its parent.

## Things you can try:
- Add the missing fields to the descriptor, or
- declare a ` + "`parent`" + ` that provides them.`,
	}

	nothingToPackageIssue = &Issue{
		id: NothingToPackageId,
		mdMsg: `
# Nothing to package!

After applying the exclusions, no profile, feature or extension module
was left to put into the unit.

## Things you can try:
- Review the exclusion patterns listed above.
- Check that the workspace contains packageable modules.`,
	}

	emptyMergeIssue = &Issue{
		id: EmptyMergeId,
		mdMsg: `
# Combined unit would be empty!

None of the input archives contributed a member.

## Things you can try:
- Check the input paths or glob patterns.
- Pass ` + "`--allow-empty`" + ` to treat this as a warning.`,
	}

	archiveIOIssue = &Issue{
		id: ArchiveIOId,
		mdMsg: `
# Archive read or write failed!

A deployable unit could not be read or written. Check that the file is a
valid archive with a manifest and that the output directory is writable.`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		workspaceNotFoundIssue.Id():    workspaceNotFoundIssue,
		descriptorInvalidIssue.Id():    descriptorInvalidIssue,
		unresolvableVersionIssue.Id():  unresolvableVersionIssue,
		artifactNotFoundIssue.Id():     artifactNotFoundIssue,
		upstreamBuildFailedIssue.Id():  upstreamBuildFailedIssue,
		abortedUpstreamIssue.Id():      abortedUpstreamIssue,
		multipleParentsIssue.Id():      multipleParentsIssue,
		dependencyCycleIssue.Id():      dependencyCycleIssue,
		incompleteCoordinateIssue.Id(): incompleteCoordinateIssue,
		nothingToPackageIssue.Id():     nothingToPackageIssue,
		emptyMergeIssue.Id():           emptyMergeIssue,
		archiveIOIssue.Id():            archiveIOIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
