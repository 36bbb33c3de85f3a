// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/sdukit/sdukit/internal/assemble"
	"github.com/sdukit/sdukit/internal/combine"
	"github.com/sdukit/sdukit/internal/depgraph"
	"github.com/sdukit/sdukit/internal/issue"
	"github.com/sdukit/sdukit/internal/resolver"
	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdu"
	"github.com/sdukit/sdukit/pkg/sdumod"
)

// classifyError maps a command failure to its catalog entry and exit code.
// An issue linked on an ActionableError takes precedence.
func classifyError(err error) (issue.Id, int) {
	var ae *issue.ActionableError
	linked := issue.Id(0)
	if errors.As(err, &ae) {
		linked = ae.Issue
	}

	id, code := issue.Id(0), ExitFailure
	switch {
	case errors.Is(err, coord.ErrInvalidCoordinate),
		errors.Is(err, coord.ErrInvalidExclusion),
		errors.Is(err, coord.ErrInvalidPackaging):
		code = ExitUsage
	case errors.Is(err, resolver.ErrUnresolvableVersion):
		id, code = issue.UnresolvableVersionId, ExitResolution
	case errors.Is(err, resolver.ErrArtifactNotFound):
		id, code = issue.ArtifactNotFoundId, ExitResolution
	case errors.Is(err, resolver.ErrUpstreamBuildFailed):
		id, code = issue.UpstreamBuildFailedId, ExitResolution
	case errors.Is(err, resolver.ErrAbortedUpstream):
		id, code = issue.AbortedUpstreamId, ExitResolution
	case errors.Is(err, depgraph.ErrMultipleParentsDeclared):
		id, code = issue.MultipleParentsId, ExitResolution
	case errors.Is(err, depgraph.ErrDependencyCycle):
		id, code = issue.DependencyCycleId, ExitResolution
	case errors.Is(err, depgraph.ErrMissingVersion):
		id, code = issue.IncompleteCoordinateId, ExitResolution
	case errors.Is(err, assemble.ErrIncompleteCoordinate):
		id, code = issue.IncompleteCoordinateId, ExitPackaging
	case errors.Is(err, assemble.ErrNothingToPackage):
		id, code = issue.NothingToPackageId, ExitPackaging
	case errors.Is(err, combine.ErrEmptyMerge):
		id, code = issue.EmptyMergeId, ExitPackaging
	case errors.Is(err, sdu.ErrIO):
		id, code = issue.ArchiveIOId, ExitPackaging
	case errors.Is(err, sdumod.ErrDescriptorNotFound):
		id = issue.WorkspaceNotFoundId
	case errors.Is(err, sdumod.ErrInvalidDescriptor):
		id = issue.DescriptorInvalidId
	}
	if linked != 0 {
		id = linked
	}
	return id, code
}

// formatErrorForDisplay uses the ActionableError layout when available.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderError prints err and, in verbose mode, the catalog entry for its
// class. It returns the error wrapped with the exit code.
func renderError(w io.Writer, err error, verbose bool) *ExitError {
	id, code := classifyError(err)
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	if verbose && id != 0 {
		if entry := issue.Get(id); entry != nil {
			if rendered, rerr := entry.Render(""); rerr == nil {
				fmt.Fprint(w, rendered)
			}
		}
	}
	return &ExitError{Code: code, Err: err}
}
