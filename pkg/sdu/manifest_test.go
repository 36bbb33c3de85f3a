// SPDX-License-Identifier: MPL-2.0

package sdu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sdukit/sdukit/pkg/coord"
)

func TestManifestSlots(t *testing.T) {
	t.Parallel()

	project := coord.New("com.acme", "product", "1.0", coord.PackagingAggregate)
	slots := []Slot{
		{"com.acme", "base", "1.0", coord.PackagingProfile},
		{"com.acme", "edge", "1.0", coord.PackagingFeature},
	}
	m := NewManifest(project, slots)

	data, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "Manifest-Version: 1.0\r\n") {
		t.Errorf("manifest must start with Manifest-Version, got %q", text)
	}
	if strings.Index(text, "Name: slot0") > strings.Index(text, "Name: slot1") {
		t.Error("slot0 must be written before slot1")
	}

	parsed, err := ParseManifest(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseManifest() error: %v", err)
	}
	got := parsed.Slots()
	if len(got) != 2 || got[0] != slots[0] || got[1] != slots[1] {
		t.Errorf("Slots() = %+v, want %+v", got, slots)
	}
	if v, _ := parsed.Get(AttrName); v != "com.acme.product" {
		t.Errorf("Name = %q", v)
	}
}

func TestManifestLongLines(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("segment.", 30) + "end"
	m := &Manifest{Main: []Attribute{{AttrManifestVersion, "1.0"}, {"Long-Value", long}}}
	data, err := m.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(string(data), "\r\n") {
		if len(line) > maxLineBytes {
			t.Errorf("line exceeds %d bytes: %q", maxLineBytes, line)
		}
	}

	parsed, err := ParseManifest(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := parsed.Get("long-value"); v != long {
		t.Errorf("continuation lines not joined: got %q", v)
	}
}

func TestParseManifestLF(t *testing.T) {
	t.Parallel()

	in := "Manifest-Version: 1.0\n\nName: slot0\ngroupId: g\nartifactId: a\nversion: 2\n"
	m, err := ParseManifest(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	slots := m.Slots()
	if len(slots) != 1 || slots[0].Version != "2" {
		t.Errorf("Slots() = %+v", slots)
	}
}

func TestParseManifestMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"Manifest-Version 1.0\n",
		"Manifest-Version: 1.0\n\ngroupId: g\n",
		" leading continuation\n",
	} {
		if _, err := ParseManifest(strings.NewReader(in)); !errors.Is(err, ErrMalformedManifest) {
			t.Errorf("ParseManifest(%q) error = %v, want ErrMalformedManifest", in, err)
		}
	}
}

func TestSetSlotRewritesInPlace(t *testing.T) {
	t.Parallel()

	m := NewManifest(coord.New("g", "p", "1", coord.PackagingAggregate), []Slot{{"g", "a", "1", coord.PackagingProfile}})
	m.SetSlot(0, Slot{"g", "a", "2", coord.PackagingProfile})
	if len(m.Sections) != 1 {
		t.Fatalf("len(Sections) = %d, want 1", len(m.Sections))
	}
	if got := m.Slots()[0].Version; got != "2" {
		t.Errorf("version = %q, want 2", got)
	}
}
