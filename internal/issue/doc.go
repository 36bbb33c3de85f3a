// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors for the CLI and a catalog of
// Markdown explanations, one per failure class, rendered with glamour.
package issue
