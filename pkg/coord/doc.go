// SPDX-License-Identifier: MPL-2.0

// Package coord defines artifact coordinates, the closed set of packaging kinds
// and exclusion rules shared by the resolver, the dependency graph builder and
// the archive tooling.
//
// Coordinates have two string forms:
//   - identity: "group:artifact"
//   - full:     "group:artifact:packaging:version"
//
// Exclusion rules use the identity form where either side may contain "*".
package coord
