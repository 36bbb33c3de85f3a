// SPDX-License-Identifier: MPL-2.0

package coord

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// ErrInvalidExclusion is the sentinel error wrapped by InvalidExclusionError.
var ErrInvalidExclusion = errors.New("invalid exclusion")

type (
	// Exclusion removes matching dependency edges. Either side may contain "*"
	// wildcards; an empty side matches anything.
	Exclusion struct {
		Group    string `json:"group"`
		Artifact string `json:"artifact"`
	}

	// InvalidExclusionError is returned when an exclusion is not in
	// "group:artifact" form.
	InvalidExclusionError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidExclusionError) Error() string {
	return fmt.Sprintf("exclusion %q does not adhere to the expected format <group>:<artifact>", e.Value)
}

// Unwrap returns ErrInvalidExclusion for errors.Is.
func (e *InvalidExclusionError) Unwrap() error { return ErrInvalidExclusion }

// ParseExclusions parses a comma-separated list of "group:artifact" patterns.
// Blank input yields no exclusions.
func ParseExclusions(s string) ([]Exclusion, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []Exclusion
	for raw := range strings.SplitSeq(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ":")
		if len(parts) != 2 {
			return nil, &InvalidExclusionError{Value: raw}
		}
		for _, p := range parts {
			if strings.Contains(p, "*") {
				compilePattern(p)
			}
		}
		out = append(out, Exclusion{Group: parts[0], Artifact: parts[1]})
	}
	return out, nil
}

// Matches reports whether the rule excludes c. Both sides must match.
func (e Exclusion) Matches(c Coordinate) bool {
	return matchPattern(e.Group, c.Group) && matchPattern(e.Artifact, c.Artifact)
}

// String returns "group:artifact".
func (e Exclusion) String() string { return e.Group + ":" + e.Artifact }

// MatchAny returns the first rule in rules that excludes c.
func MatchAny(rules []Exclusion, c Coordinate) (Exclusion, bool) {
	for _, r := range rules {
		if r.Matches(c) {
			return r, true
		}
	}
	return Exclusion{}, false
}

// JoinExclusions renders rules as "g:a, g2:a2" for diagnostics.
func JoinExclusions(rules []Exclusion) string {
	parts := make([]string, 0, len(rules))
	for _, r := range rules {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ", ")
}

// patterns caches compiled wildcard patterns by their source text.
var patterns sync.Map // string -> *regexp.Regexp

// matchPattern translates a "*" glob to an anchored regular expression with
// every other character taken literally.
func matchPattern(pattern, value string) bool {
	if pattern == "" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return pattern == value
	}
	return compilePattern(pattern).MatchString(value)
}

func compilePattern(pattern string) *regexp.Regexp {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}
	segments := strings.Split(pattern, "*")
	for i, s := range segments {
		segments[i] = regexp.QuoteMeta(s)
	}
	// quoted segments joined by ".*" always compile
	re := regexp.MustCompile("^" + strings.Join(segments, ".*") + "$")
	actual, _ := patterns.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp)
}
