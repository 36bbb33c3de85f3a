// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation only", &ActionableError{Operation: "combine units"}, "failed to combine units"},
		{
			"with resource",
			&ActionableError{Operation: "load workspace", Resource: "./shop"},
			"failed to load workspace: ./shop",
		},
		{
			"full",
			&ActionableError{Operation: "load workspace", Resource: "./shop", Cause: errors.New("no descriptor")},
			"failed to load workspace: ./shop: no descriptor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().WithOperation("resolve").Wrap(sentinel).BuildError()
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("disk full")
	err := &ActionableError{
		Operation:   "write unit",
		Resource:    "target/shop-1.0.sdu",
		Suggestions: []string{"Free some space", "Pick another output directory"},
		Cause:       errors.Join(inner),
	}

	brief := err.Format(false)
	if !strings.Contains(brief, "  • Free some space") || !strings.Contains(brief, "  • Pick another output directory") {
		t.Errorf("Format(false) missing suggestions:\n%s", brief)
	}
	if strings.Contains(brief, "Error chain") {
		t.Errorf("Format(false) should not include the chain:\n%s", brief)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") || !strings.Contains(verbose, "1. disk full") {
		t.Errorf("Format(true) missing chain:\n%s", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil interface", err)
	}

	ae := NewErrorContext().
		WithOperation("combine units").
		WithSuggestion("a").
		WithSuggestions("b", "c").
		WithIssue(EmptyMergeId).
		Build()
	if len(ae.Suggestions) != 3 {
		t.Errorf("Suggestions = %v, want 3 entries", ae.Suggestions)
	}
	if ae.Issue != EmptyMergeId {
		t.Errorf("Issue = %d, want %d", ae.Issue, EmptyMergeId)
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should be nil")
	}
	ae := WrapWithContext(errors.New("boom"), "op", "res")
	if ae.Operation != "op" || ae.Resource != "res" || ae.Cause == nil {
		t.Errorf("WrapWithContext = %+v", ae)
	}
}
