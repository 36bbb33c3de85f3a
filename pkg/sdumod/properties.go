// SPDX-License-Identifier: MPL-2.0

package sdumod

// Project property keys always present in EffectiveProperties when known.
const (
	PropProjectGroup    = "project.groupId"
	PropProjectArtifact = "project.artifactId"
	PropProjectVersion  = "project.version"
)

// EffectiveProperties merges the descriptor's properties with those of every
// linked ancestor. Nearer declarations win. The project.* keys describe the
// descriptor itself and override declared values of the same name.
func (d *Descriptor) EffectiveProperties() map[string]string {
	out := make(map[string]string)
	seen := make(map[*Descriptor]bool)
	for cur := d; cur != nil && !seen[cur]; cur = cur.parent {
		seen[cur] = true
		for k, v := range cur.Properties {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}

	c := d.EffectiveCoordinate()
	if c.Group != "" {
		out[PropProjectGroup] = c.Group
	}
	if c.Artifact != "" {
		out[PropProjectArtifact] = c.Artifact
	}
	if c.Version != "" {
		out[PropProjectVersion] = c.Version
	}
	return out
}
