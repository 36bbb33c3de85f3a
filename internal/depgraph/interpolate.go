// SPDX-License-Identifier: MPL-2.0

package depgraph

import "strings"

// Interpolate substitutes ${key} tokens in value from props in a single pass.
// Substituted text is not rescanned. Tokens with no matching property stay in
// place and their keys are returned so the caller can warn.
func Interpolate(props map[string]string, value string) (string, []string) {
	if !strings.Contains(value, "${") {
		return value, nil
	}
	var (
		b          strings.Builder
		unresolved []string
	)
	rest := value
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			b.WriteString(rest)
			unresolved = append(unresolved, rest[start+2:])
			break
		}
		end += start
		key := rest[start+2 : end]
		b.WriteString(rest[:start])
		if v, ok := props[key]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(rest[start : end+1])
			unresolved = append(unresolved, key)
		}
		rest = rest[end+1:]
	}
	return b.String(), unresolved
}
