// SPDX-License-Identifier: MPL-2.0

// Package sdu implements the Single Deployable Unit archive format.
//
// An SDU is a ZIP file whose entries are all stored uncompressed:
//
//	META-INF/MANIFEST.MF   main attributes plus one slotN section per load-order position
//	version.txt            "<group>.<artifact>-<version>" of the producing project
//	<artifact>-<version>.dar                     profile members, at the root
//	group/as/path/<artifact>/<version>/<file>    feature and extension members
//
// Slots are numbered from 0 in load order: a slot never precedes the slot of
// the profile it is loaded into.
package sdu
