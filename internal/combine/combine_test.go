// SPDX-License-Identifier: MPL-2.0

package combine

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/sdukit/sdukit/internal/testutil"
	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdu"
)

const group = "com.acme"

var project = coord.New(group, "combined", "3.0", coord.PackagingAggregate)

// input describes one archive. Profiles and then features become slots;
// profiles are root members and features sit at their member path.
type input struct {
	profiles []string // artifact@version
	features []string
}

func buildInput(t *testing.T, path string, in input) string {
	t.Helper()
	var slots []sdu.Slot
	members := make(map[string]string)
	for _, p := range in.profiles {
		a, v, _ := strings.Cut(p, "@")
		slots = append(slots, sdu.Slot{Group: group, Artifact: a, Version: v, Packaging: coord.PackagingProfile})
		members[sdu.ProfileMemberName(a, v)] = "profile " + p
	}
	for _, f := range in.features {
		a, v, _ := strings.Cut(f, "@")
		c := coord.New(group, a, v, coord.PackagingFeature)
		slots = append(slots, sdu.Slot{Group: group, Artifact: a, Version: v, Packaging: coord.PackagingFeature})
		members[sdu.MemberPath(c, c.FileName())] = "feature " + f
	}
	src := coord.New(group, filepath.Base(path), "1", coord.PackagingAggregate)
	return testutil.BuildArchive(t, path, sdu.NewManifest(src, slots), sdu.VersionText(src), members)
}

func TestCombineKeepsHighestVersion(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := buildInput(t, filepath.Join(dir, "one.sdu"), input{profiles: []string{"a@1.0"}, features: []string{"b@1.0"}})
	second := buildInput(t, filepath.Join(dir, "two.sdu"), input{profiles: []string{"a@2.0"}, features: []string{"b@1.0"}})
	out := filepath.Join(t.TempDir(), "out.sdu")

	h, err := New(Options{}).Combine(context.Background(), Request{
		Project:     project,
		Inputs:      []string{first, second},
		Output:      out,
		FailOnEmpty: true,
	})
	if err != nil {
		t.Fatalf("Combine() error: %v", err)
	}

	contents := testutil.ArchiveContents(t, h.Path)
	var names []string
	for name := range contents {
		names = append(names, name)
	}
	slices.Sort(names)
	want := []string{sdu.ManifestPath, "a-2.0.dar", "com/acme/b/1.0/b-1.0.feature", sdu.VersionMarkerPath}
	slices.Sort(want)
	if !slices.Equal(names, want) {
		t.Errorf("entries = %v, want %v", names, want)
	}
	if got := string(contents["a-2.0.dar"]); got != "profile a@2.0" {
		t.Errorf("a-2.0.dar = %q", got)
	}
	if got := string(contents[sdu.VersionMarkerPath]); got != "com.acme.combined-3.0" {
		t.Errorf("version marker = %q", got)
	}

	slots := testutil.ArchiveManifest(t, out).Slots()
	if len(slots) != 1 || slots[0].Artifact != "a" || slots[0].Version != "2.0" {
		t.Errorf("slots = %+v, want [a 2.0]", slots)
	}
}

func TestCombineMaxVersionIndependentOfOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := []string{
		buildInput(t, filepath.Join(dir, "x1.sdu"), input{profiles: []string{"base@1.2", "mid@1.0"}, features: []string{"f@1.10.0"}}),
		buildInput(t, filepath.Join(dir, "x2.sdu"), input{profiles: []string{"base@1.10"}, features: []string{"f@1.9.0"}}),
		buildInput(t, filepath.Join(dir, "x3.sdu"), input{profiles: []string{"mid@0.9"}, features: []string{"f@1.2.0", "g@1.0"}}),
	}

	for _, order := range [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}} {
		inputs := make([]string, len(order))
		for i, j := range order {
			inputs[i] = paths[j]
		}
		h, err := New(Options{}).Combine(context.Background(), Request{
			Project: project,
			Inputs:  inputs,
			Output:  filepath.Join(t.TempDir(), "out.sdu"),
		})
		if err != nil {
			t.Fatalf("Combine(%v) error: %v", order, err)
		}

		got := make(map[string]string)
		for name := range testutil.ArchiveContents(t, h.Path) {
			if c, ok := sdu.ParseMemberPath(name); ok {
				if _, dup := got[c.Artifact]; dup {
					t.Errorf("order %v: two versions of %s", order, c.Artifact)
				}
				got[c.Artifact] = c.Version
			}
		}
		if got["f"] != "1.10.0" || got["g"] != "1.0" {
			t.Errorf("order %v: features = %v", order, got)
		}

		versions := make(map[string]string)
		for _, s := range h.Manifest.Slots() {
			versions[s.Artifact] = s.Version
		}
		if versions["base"] != "1.10" || versions["mid"] != "1.0" || len(versions) != 2 {
			t.Errorf("order %v: slots = %v", order, versions)
		}
	}
}

func TestCombineEmpty(t *testing.T) {
	t.Parallel()

	empty := buildInput(t, filepath.Join(t.TempDir(), "empty.sdu"), input{})

	tests := []struct {
		name        string
		failOnEmpty bool
		wantErr     error
	}{
		{"fail", true, ErrEmptyMerge},
		{"tolerate", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := filepath.Join(t.TempDir(), "out.sdu")
			h, err := New(Options{}).Combine(context.Background(), Request{
				Project:     project,
				Inputs:      []string{empty},
				Output:      out,
				FailOnEmpty: tt.failOnEmpty,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Combine() error = %v, want %v", err, tt.wantErr)
			}
			if h != nil {
				t.Errorf("handle = %+v, want nil", h)
			}
			if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
				t.Errorf("output written for empty merge: %v", statErr)
			}
		})
	}
}

func TestCombineMissingManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bare.sdu")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("a-1.dar")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	testutil.MustClose(t, zw)
	testutil.MustClose(t, f)

	_, err = New(Options{}).Combine(context.Background(), Request{
		Project: project,
		Inputs:  []string{path},
		Output:  filepath.Join(t.TempDir(), "out.sdu"),
	})
	if !errors.Is(err, sdu.ErrIO) || !errors.Is(err, sdu.ErrMissingManifest) {
		t.Errorf("Combine() error = %v, want ErrIO and ErrMissingManifest", err)
	}
}

func TestCombineLexicalFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := buildInput(t, filepath.Join(dir, "a.sdu"), input{features: []string{"f@beta"}})
	b := buildInput(t, filepath.Join(dir, "b.sdu"), input{features: []string{"f@alpha"}})

	h, err := New(Options{}).Combine(context.Background(), Request{
		Project: project,
		Inputs:  []string{b, a},
		Output:  filepath.Join(t.TempDir(), "out.sdu"),
	})
	if err != nil {
		t.Fatalf("Combine() error: %v", err)
	}
	if !slices.Contains(h.Entries, "com/acme/f/beta/f-beta.feature") {
		t.Errorf("entries = %v, want f beta", h.Entries)
	}
}

func TestExpandInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	one := testutil.MustWriteFile(t, filepath.Join(dir, "one.sdu"), "")
	two := testutil.MustWriteFile(t, filepath.Join(dir, "two.sdu"), "")
	testutil.MustWriteFile(t, filepath.Join(dir, "notes.txt"), "")
	deep := testutil.MustWriteFile(t, filepath.Join(dir, "nested", "deep", "three.sdu"), "")

	tests := []struct {
		name   string
		inputs []string
		want   []string
	}{
		{"directory", []string{dir}, []string{one, two}},
		{"file", []string{two}, []string{two}},
		{"recursive glob", []string{filepath.Join(dir, "**", "*.sdu")}, []string{deep, one, two}},
		{"duplicates keep first position", []string{two, dir}, []string{two, one}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExpandInputs(tt.inputs)
			if err != nil {
				t.Fatalf("ExpandInputs() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ExpandInputs() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ExpandInputs([]string{filepath.Join(dir, "missing.sdu")}); !errors.Is(err, sdu.ErrIO) {
		t.Errorf("ExpandInputs(missing) error = %v, want ErrIO", err)
	}
}
