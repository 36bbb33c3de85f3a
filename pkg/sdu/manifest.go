// SPDX-License-Identifier: MPL-2.0

package sdu

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sdukit/sdukit/pkg/coord"
)

// Manifest header names.
const (
	AttrManifestVersion = "Manifest-Version"
	AttrCreatedBy       = "Created-By"
	AttrName            = "Name"
	AttrVersion         = "Version"

	AttrSlotGroup     = "groupId"
	AttrSlotArtifact  = "artifactId"
	AttrSlotVersion   = "version"
	AttrSlotPackaging = "packaging"

	// SlotPrefix prefixes the numbered load-order section names.
	SlotPrefix = "slot"

	// CreatedBy is written to the Created-By main attribute.
	CreatedBy = "sdukit"

	maxLineBytes = 72
)

type (
	// Attribute is one "Name: value" header.
	Attribute struct {
		Name  string
		Value string
	}

	// Section is a named group of attributes.
	Section struct {
		Name  string
		Attrs []Attribute
	}

	// Manifest is a JAR-style manifest. Attribute order is preserved.
	Manifest struct {
		Main     []Attribute
		Sections []Section
	}

	// Slot is one load-order position.
	Slot struct {
		Group     string
		Artifact  string
		Version   string
		Packaging coord.Packaging
	}
)

// Coordinate returns the slot as a coordinate.
func (s Slot) Coordinate() coord.Coordinate {
	return coord.New(s.Group, s.Artifact, s.Version, s.Packaging)
}

// SlotName returns the section name of load-order position n.
func SlotName(n int) string { return SlotPrefix + strconv.Itoa(n) }

// NewManifest returns a manifest for project with one section per slot, in order.
func NewManifest(project coord.Coordinate, slots []Slot) *Manifest {
	m := &Manifest{
		Main: []Attribute{
			{AttrManifestVersion, "1.0"},
			{AttrCreatedBy, CreatedBy},
			{AttrName, project.DottedKey()},
			{AttrVersion, project.Version},
		},
	}
	for i, s := range slots {
		m.SetSlot(i, s)
	}
	return m
}

// Get returns a main attribute.
func (m *Manifest) Get(name string) (string, bool) {
	return lookup(m.Main, name)
}

// Section returns the section with the given name.
func (m *Manifest) Section(name string) (*Section, bool) {
	for i := range m.Sections {
		if m.Sections[i].Name == name {
			return &m.Sections[i], true
		}
	}
	return nil, false
}

// Get returns an attribute of the section.
func (s *Section) Get(name string) (string, bool) { return lookup(s.Attrs, name) }

// Set replaces or appends an attribute of the section.
func (s *Section) Set(name, value string) {
	for i := range s.Attrs {
		if strings.EqualFold(s.Attrs[i].Name, name) {
			s.Attrs[i].Value = value
			return
		}
	}
	s.Attrs = append(s.Attrs, Attribute{name, value})
}

// SetSlot writes load-order position n.
func (m *Manifest) SetSlot(n int, s Slot) {
	name := SlotName(n)
	sec, ok := m.Section(name)
	if !ok {
		m.Sections = append(m.Sections, Section{Name: name})
		sec = &m.Sections[len(m.Sections)-1]
	}
	sec.Set(AttrSlotGroup, s.Group)
	sec.Set(AttrSlotArtifact, s.Artifact)
	sec.Set(AttrSlotVersion, s.Version)
	if s.Packaging != "" {
		sec.Set(AttrSlotPackaging, string(s.Packaging))
	}
}

// Slots returns the load-order slots starting at slot0 and stopping at the
// first missing number.
func (m *Manifest) Slots() []Slot {
	var out []Slot
	for n := 0; ; n++ {
		sec, ok := m.Section(SlotName(n))
		if !ok {
			return out
		}
		g, _ := sec.Get(AttrSlotGroup)
		a, _ := sec.Get(AttrSlotArtifact)
		v, _ := sec.Get(AttrSlotVersion)
		p, _ := sec.Get(AttrSlotPackaging)
		out = append(out, Slot{Group: g, Artifact: a, Version: v, Packaging: coord.Packaging(p)})
	}
}

// MarshalBinary encodes the manifest with CRLF line endings and 72-byte line
// wrapping. Slot sections are written in slot order, other sections after
// them sorted by name.
func (m *Manifest) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	for _, a := range m.Main {
		if err := writeHeader(&buf, a); err != nil {
			return nil, err
		}
	}
	buf.WriteString("\r\n")

	for _, s := range m.sortedSections() {
		if err := writeHeader(&buf, Attribute{AttrName, s.Name}); err != nil {
			return nil, err
		}
		for _, a := range s.Attrs {
			if err := writeHeader(&buf, a); err != nil {
				return nil, err
			}
		}
		buf.WriteString("\r\n")
	}
	return buf.Bytes(), nil
}

// ParseManifest decodes a manifest. Both CRLF and LF line endings are accepted.
func ParseManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	var (
		lines   []string
		current *Section
		inMain  = true
	)
	flush := func() error {
		for _, l := range lines {
			name, value, ok := strings.Cut(l, ": ")
			if !ok {
				return fmt.Errorf("%w: line %q", ErrMalformedManifest, l)
			}
			switch {
			case inMain:
				m.Main = append(m.Main, Attribute{name, value})
			case current == nil:
				if !strings.EqualFold(name, AttrName) {
					return fmt.Errorf("%w: section must start with Name, got %q", ErrMalformedManifest, name)
				}
				m.Sections = append(m.Sections, Section{Name: value})
				current = &m.Sections[len(m.Sections)-1]
			default:
				current.Attrs = append(current.Attrs, Attribute{name, value})
			}
		}
		lines = lines[:0]
		return nil
	}

	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		switch {
		case line == "":
			if err := flush(); err != nil {
				return nil, err
			}
			if len(m.Main) > 0 || !inMain {
				inMain = false
				current = nil
			}
		case strings.HasPrefix(line, " "):
			if len(lines) == 0 {
				return nil, fmt.Errorf("%w: continuation without header", ErrMalformedManifest)
			}
			lines[len(lines)-1] += line[1:]
		default:
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) sortedSections() []Section {
	out := make([]Section, len(m.Sections))
	copy(out, m.Sections)
	sort.SliceStable(out, func(i, j int) bool {
		ni, iSlot := slotNumber(out[i].Name)
		nj, jSlot := slotNumber(out[j].Name)
		switch {
		case iSlot && jSlot:
			return ni < nj
		case iSlot != jSlot:
			return iSlot
		default:
			return out[i].Name < out[j].Name
		}
	})
	return out
}

func slotNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, SlotPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	return n, err == nil && n >= 0
}

func writeHeader(buf *bytes.Buffer, a Attribute) error {
	if a.Name == "" || strings.ContainsAny(a.Name, ": \r\n") {
		return fmt.Errorf("%w: invalid attribute name %q", ErrMalformedManifest, a.Name)
	}
	if strings.ContainsAny(a.Value, "\r\n") {
		return fmt.Errorf("%w: attribute %s has a line break", ErrMalformedManifest, a.Name)
	}
	line := a.Name + ": " + a.Value
	limit := maxLineBytes
	for len(line) > limit {
		buf.WriteString(line[:limit])
		buf.WriteString("\r\n ")
		line = line[limit:]
		// continuation lines spend one byte on the leading space
		limit = maxLineBytes - 1
	}
	buf.WriteString(line)
	buf.WriteString("\r\n")
	return nil
}

func lookup(attrs []Attribute, name string) (string, bool) {
	for _, a := range attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}
