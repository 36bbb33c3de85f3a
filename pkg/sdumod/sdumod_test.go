// SPDX-License-Identifier: MPL-2.0

package sdumod

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdukit/sdukit/pkg/coord"
)

func writeDescriptor(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, DescriptorFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseDescriptor(t *testing.T) {
	t.Parallel()

	d, err := ParseDescriptor([]byte(`
group:     "com.acme"
artifact:  "edge-feature"
version:   "1.0"
packaging: "feature"
properties: "profile.version": "2.1"
dependencies: [{
	group:     "com.acme"
	artifact:  "base-profile"
	version:   "${profile.version}"
	packaging: "dar"
	exclusions: [{group: "org.noise", artifact: "*"}]
}, {
	group:    "org.lib"
	artifact: "util"
	version:  "3.0"
}]
`), "edge/sdumod.cue")
	if err != nil {
		t.Fatalf("ParseDescriptor() error: %v", err)
	}

	if got := d.Coordinate().String(); got != "com.acme:edge-feature:feature:1.0" {
		t.Errorf("Coordinate() = %s", got)
	}
	if len(d.Dependencies) != 2 {
		t.Fatalf("len(Dependencies) = %d, want 2", len(d.Dependencies))
	}
	dep := d.Dependencies[0]
	if dep.Packaging != coord.PackagingProfile || dep.Scope != "compile" || len(dep.Exclusions) != 1 {
		t.Errorf("first dependency = %+v", dep)
	}
	if d.Dependencies[1].Packaging != "jar" {
		t.Errorf("default packaging = %q, want jar", d.Dependencies[1].Packaging)
	}
	if d.Path != "edge/sdumod.cue" {
		t.Errorf("Path = %q", d.Path)
	}
}

func TestParseDescriptorRejectsUnknownPackaging(t *testing.T) {
	t.Parallel()

	_, err := ParseDescriptor([]byte(`artifact: "x"
packaging: "war"`), "x.cue")
	if !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("error = %v, want ErrInvalidDescriptor", err)
	}
}

func TestParseDescriptorFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadDir(t.TempDir())
	if !errors.Is(err, ErrDescriptorNotFound) {
		t.Errorf("error = %v, want ErrDescriptorNotFound", err)
	}
}

func TestEffectiveCoordinateInheritsFromParent(t *testing.T) {
	t.Parallel()

	d := &Descriptor{
		Artifact:  "child",
		Packaging: coord.PackagingFeature,
		Parent:    &ParentRef{Group: "com.acme", Artifact: "parent", Version: "4.2"},
	}
	got := d.EffectiveCoordinate()
	if got.Group != "com.acme" || got.Version != "4.2" {
		t.Errorf("EffectiveCoordinate() = %s", got)
	}
	if d.Coordinate().Group != "" {
		t.Error("Coordinate() must not inherit")
	}
}

func TestEffectivePropertiesNearestWins(t *testing.T) {
	t.Parallel()

	grand := &Descriptor{Artifact: "grand", Properties: map[string]string{"a": "grand", "b": "grand", "c": "grand"}}
	parent := &Descriptor{Artifact: "parent", Properties: map[string]string{"b": "parent", "c": "parent"}}
	child := &Descriptor{
		Group: "g", Artifact: "child", Version: "1.0",
		Properties: map[string]string{"c": "child", "project.version": "bogus"},
	}
	parent.Link(grand)
	child.Link(parent)

	props := child.EffectiveProperties()
	want := map[string]string{
		"a": "grand", "b": "parent", "c": "child",
		PropProjectVersion: "1.0", PropProjectGroup: "g", PropProjectArtifact: "child",
	}
	for k, v := range want {
		if props[k] != v {
			t.Errorf("props[%q] = %q, want %q", k, props[k], v)
		}
	}
}

func TestLoadWorkspace(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeDescriptor(t, root, `
group: "com.acme"
artifact: "product"
version: "1.0"
packaging: "pom"
properties: "shared": "yes"
modules: ["profile", "features"]
`)
	writeDescriptor(t, filepath.Join(root, "profile"), `
artifact: "base"
packaging: "dar"
parent: {group: "com.acme", artifact: "product", version: "1.0"}
`)
	writeDescriptor(t, filepath.Join(root, "features"), `
group: "com.acme"
artifact: "features"
version: "1.0"
packaging: "pom"
modules: ["edge"]
`)
	writeDescriptor(t, filepath.Join(root, "features", "edge"), `
group: "com.acme"
artifact: "edge"
version: "1.0"
packaging: "feature"
`)

	w, err := LoadWorkspace(root)
	if err != nil {
		t.Fatalf("LoadWorkspace() error: %v", err)
	}
	if len(w.Modules) != 4 {
		t.Fatalf("len(Modules) = %d, want 4", len(w.Modules))
	}

	base, ok := w.Lookup("com.acme", "base", "1.0")
	if !ok {
		t.Fatal("Lookup(base) failed")
	}
	if base.Linked() != w.Root {
		t.Error("base not linked to workspace root")
	}
	if base.EffectiveProperties()["shared"] != "yes" {
		t.Error("inherited property missing")
	}

	tests := []struct {
		includeAll bool
		want       []string
	}{
		{false, []string{"product", "base"}},
		{true, []string{"product", "base", "edge"}},
	}
	for _, tt := range tests {
		var got []string
		for _, d := range w.Roots(tt.includeAll) {
			got = append(got, d.Artifact)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("Roots(%v) = %v, want %v", tt.includeAll, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Roots(%v) = %v, want %v", tt.includeAll, got, tt.want)
				break
			}
		}
	}
}
