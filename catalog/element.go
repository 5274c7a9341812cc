// Package catalog holds the declarative description of a conversion: which
// metadata fields exist, their value representation, and how each output
// value is derived from the source files.
package catalog

import (
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Disposition is the policy governing how an output field's value is derived.
type Disposition int

const (
	// Keep copies the source value verbatim. Fields absent from the source
	// resolve to an empty value.
	Keep Disposition = iota
	// Blank forces an empty value regardless of the source.
	Blank
	// Harmonize forces the declared constant, normalizing device-reported
	// values to the study-wide convention.
	Harmonize
	// Designate computes the value from a companion file via a Map rule.
	Designate
	// ForceOnRead overwrites the value in the entry table at extraction time,
	// before evaluation. Used for orientation fields the devices report
	// inconsistently.
	ForceOnRead
)

// String returns the string representation of the disposition.
func (d Disposition) String() string {
	switch d {
	case Keep:
		return "keep"
	case Blank:
		return "blank"
	case Harmonize:
		return "harmonize"
	case Designate:
		return "designate"
	case ForceOnRead:
		return "force-on-read"
	default:
		return "unknown"
	}
}

// Element declares a single flat metadata field and its output policy.
// HarmonizedValue is consulted only for Harmonize and ForceOnRead and must be
// a []string, []int or []float64 matching the value representation. Reference
// names the Map rule that resolves a Designate field; it is documentation
// only - the evaluator matches Map rules by tag.
type Element struct {
	Name            string
	Tag             tag.Tag
	VR              string
	Disposition     Disposition
	HarmonizedValue any
	Reference       string
}

// Sequence declares a repeatable group of field declarations. Items models
// that a sequence can carry multiple items, each with its own declaration
// list (multi-item sequences like per-layer segment descriptions). Nested
// sequences are declared under Nested and resolved recursively.
type Sequence struct {
	Name   string
	Tag    tag.Tag
	VR     string
	Items  [][]Element
	Nested []Sequence
}

// Role identifies which companion file a Designate rule or synthesizer reads
// from.
type Role string

const (
	// RoleOCT is the structural OCT volume.
	RoleOCT Role = "OCT"
	// RoleSEG is the retinal layer segmentation file.
	RoleSEG Role = "SEG"
	// RoleEnface is the derived en face projection file.
	RoleEnface Role = "ENFACE"
	// RoleLocalizer is the operator/localizer fundus image.
	RoleLocalizer Role = "LOCALIZER"
	// RoleFlow is the OCTA flow cube.
	RoleFlow Role = "FLOW"
)

// Map describes, for a Designate field, which companion role and which tag(s)
// in that companion's entry table supply the value. With one mapped tag the
// value is the companion's first value for that tag. With two mapped tags the
// value is instead the item count of the sequence named by the second tag
// (frame counts derived from segment-sequence cardinality).
type Map struct {
	Name       string
	Tag        tag.Tag
	Role       Role
	MappedName string
	MappedTags []tag.Tag
}
