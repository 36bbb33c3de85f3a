// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
// Module descriptors (sdumod.cue) and the sdukit configuration file share the
// same flow: compile the schema, unify the user data with one of its
// definitions, validate, then decode into a Go struct.
//
//	//go:embed sdumod_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[Descriptor](schema, data, "#Descriptor",
//	    cueutil.WithFilename(path))
package cueutil
