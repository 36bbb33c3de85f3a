// SPDX-License-Identifier: MPL-2.0

package sdu

import (
	"path"
	"strings"

	"github.com/sdukit/sdukit/pkg/coord"
)

const (
	// ManifestPath is the archive path of the manifest.
	ManifestPath = "META-INF/MANIFEST.MF"
	// VersionMarkerPath is the archive path of the version marker.
	VersionMarkerPath = "version.txt"
	// Extension is the file extension of SDU archives.
	Extension = "sdu"
)

// VersionText returns the version marker content "<group>.<artifact>-<version>".
func VersionText(project coord.Coordinate) string {
	return project.DottedKey() + "-" + project.Version
}

// FileName returns the default archive name "<artifact>-<version>.sdu".
func FileName(project coord.Coordinate) string {
	return project.Artifact + "-" + project.Version + "." + Extension
}

// MemberPath returns the archive path of a member file. Profiles sit at the
// root; features and extensions under group/as/path/artifact/version/.
func MemberPath(c coord.Coordinate, filename string) string {
	if c.Packaging.IsProfile() {
		return filename
	}
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, c.Version, filename)
}

// ProfileMemberName returns the root entry name of a profile member.
func ProfileMemberName(artifact, version string) string {
	return artifact + "-" + version + "." + coord.PackagingProfile.Extension()
}

// MemberFileName renames build outputs ending in ".jar" to the packaging
// extension. Other names are returned unchanged.
func MemberFileName(name string, p coord.Packaging) string {
	if base, ok := strings.CutSuffix(name, "."+coord.PackagingJar.Extension()); ok {
		return base + "." + p.Extension()
	}
	return name
}

// ParseMemberPath recovers the coordinate of a feature or extension entry from
// its path. It reports false for any other entry.
func ParseMemberPath(p string) (coord.Coordinate, bool) {
	var kind coord.Packaging
	switch {
	case strings.HasSuffix(p, "."+coord.PackagingFeature.Extension()):
		kind = coord.PackagingFeature
	case strings.HasSuffix(p, "."+coord.PackagingExtension.Extension()):
		kind = coord.PackagingExtension
	default:
		return coord.Coordinate{}, false
	}

	segs := strings.Split(p, "/")
	// group needs at least one segment, then artifact, version and file
	if len(segs) < 4 {
		return coord.Coordinate{}, false
	}
	n := len(segs)
	version, artifact := segs[n-2], segs[n-3]
	group := strings.Join(segs[:n-3], ".")
	if group == "" || artifact == "" || version == "" {
		return coord.Coordinate{}, false
	}
	return coord.New(group, artifact, version, kind), true
}

// parentDirs returns the directory entries ("a/", "a/b/") leading to p,
// outermost first.
func parentDirs(p string) []string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return nil
	}
	parts := strings.Split(dir, "/")
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, strings.Join(parts[:i+1], "/")+"/")
	}
	return out
}
