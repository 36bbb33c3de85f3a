// SPDX-License-Identifier: MPL-2.0

// Package semver parses and compares artifact versions and resolves bracket
// range expressions such as "[1.0,2.0)" to the highest available version.
//
// Versions are parsed leniently: "1.0", "1.2.3" and "2.0-SNAPSHOT" are all
// accepted, with missing minor/patch components treated as zero.
package semver

import (
	"errors"
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

var (
	// ErrInvalidVersion is returned when a version string cannot be parsed.
	ErrInvalidVersion = errors.New("invalid version")
	// ErrInvalidRange is returned when a range expression is malformed.
	ErrInvalidRange = errors.New("invalid version range")
)

type (
	// Version is a parsed artifact version. The original string is kept so that
	// callers can write back exactly what the producer declared.
	Version struct {
		raw string
		v   *mm.Version
	}

	// Range is a parsed bracket range expression. A range is a union of one or
	// more intervals: "[1.0,2.0),[3.0,)".
	Range struct {
		raw string
		c   *mm.Constraints
	}
)

// Parse parses a version string.
func Parse(raw string) (Version, error) {
	v, err := mm.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, fmt.Errorf("%w %q: %w", ErrInvalidVersion, raw, err)
	}
	return Version{raw: raw, v: v}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(raw string) Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as originally written.
func (v Version) String() string { return v.raw }

// Compare returns -1, 0 or 1 when v is lower than, equal to or greater than o.
// A zero Version sorts below every parsed one.
func (v Version) Compare(o Version) int {
	switch {
	case v.v == nil && o.v == nil:
		return 0
	case v.v == nil:
		return -1
	case o.v == nil:
		return 1
	}
	return v.v.Compare(o.v)
}

// GreaterThan reports whether v is strictly newer than o.
func (v Version) GreaterThan(o Version) bool { return v.Compare(o) > 0 }

// CompareStrings compares two raw version strings. When either side fails to
// parse, the strings are compared lexically and ok is false so the caller can
// report the degraded comparison.
func CompareStrings(a, b string) (cmp int, ok bool) {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b), false
	}
	return va.Compare(vb), true
}

// IsRange reports whether raw uses bracket range syntax.
func IsRange(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "[") || strings.HasPrefix(raw, "(")
}

// ParseRange parses a bracket range expression into a constraint.
//
//	[1.0,2.0)   1.0 <= v < 2.0
//	(1.0,]      v > 1.0
//	[1.5]       v == 1.5
//	[1,2),[3,)  union of intervals
func ParseRange(raw string) (Range, error) {
	intervals, err := splitIntervals(raw)
	if err != nil {
		return Range{}, err
	}
	alternatives := make([]string, 0, len(intervals))
	for _, iv := range intervals {
		expr, err := intervalConstraint(iv)
		if err != nil {
			return Range{}, fmt.Errorf("%w %q: %w", ErrInvalidRange, raw, err)
		}
		alternatives = append(alternatives, expr)
	}
	c, err := mm.NewConstraint(strings.Join(alternatives, " || "))
	if err != nil {
		return Range{}, fmt.Errorf("%w %q: %w", ErrInvalidRange, raw, err)
	}
	return Range{raw: raw, c: c}, nil
}

// String returns the range as originally written.
func (r Range) String() string { return r.raw }

// Contains reports whether v lies inside the range.
func (r Range) Contains(v Version) bool {
	if r.c == nil || v.v == nil {
		return false
	}
	return r.c.Check(v.v)
}

// MaxSatisfying returns the highest candidate contained in r. Candidates that
// do not parse are ignored. When equal versions occur, the first one wins.
func (r Range) MaxSatisfying(candidates []string) (Version, bool) {
	var best Version
	found := false
	for _, raw := range candidates {
		v, err := Parse(raw)
		if err != nil || !r.Contains(v) {
			continue
		}
		if !found || v.GreaterThan(best) {
			best = v
			found = true
		}
	}
	return best, found
}

func splitIntervals(raw string) ([]string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if s == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidRange)
	}
	var out []string
	for s != "" {
		if s[0] != '[' && s[0] != '(' {
			return nil, fmt.Errorf("%w %q: expected '[' or '('", ErrInvalidRange, raw)
		}
		end := strings.IndexAny(s, "])")
		if end < 0 {
			return nil, fmt.Errorf("%w %q: unterminated interval", ErrInvalidRange, raw)
		}
		out = append(out, s[:end+1])
		s = strings.TrimPrefix(s[end+1:], ",")
	}
	return out, nil
}

func intervalConstraint(iv string) (string, error) {
	lowerInclusive := iv[0] == '['
	upperInclusive := iv[len(iv)-1] == ']'
	body := iv[1 : len(iv)-1]

	bounds := strings.Split(body, ",")
	switch len(bounds) {
	case 1:
		if !lowerInclusive || !upperInclusive || bounds[0] == "" {
			return "", errors.New("a single version must be written as [v]")
		}
		return "= " + bounds[0], nil
	case 2:
	default:
		return "", fmt.Errorf("interval %q has more than two bounds", iv)
	}

	lower, upper := bounds[0], bounds[1]
	if lower == "" && upper == "" {
		return "", fmt.Errorf("interval %q has no bounds", iv)
	}
	var parts []string
	if lower != "" {
		op := ">"
		if lowerInclusive {
			op = ">="
		}
		parts = append(parts, op+" "+lower)
	}
	if upper != "" {
		op := "<"
		if upperInclusive {
			op = "<="
		}
		parts = append(parts, op+" "+upper)
	}
	return strings.Join(parts, ", "), nil
}
