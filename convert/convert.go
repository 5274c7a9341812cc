// Package convert is the generic conversion engine. A device protocol is a
// Profile: the conversion rule and mapping tables to apply, the companion
// roles it needs, and optional synthesizer/transcoder callbacks. The engine
// itself knows nothing about any device; it extracts, evaluates, transcodes,
// synthesizes and writes in a fixed order.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/catalog"
	"github.com/AI-READI/fairhub-pipeline-sub000/entry"
	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
	"github.com/AI-READI/fairhub-pipeline-sub000/evaluate"
	"github.com/AI-READI/fairhub-pipeline-sub000/extract"
	"github.com/AI-READI/fairhub-pipeline-sub000/writer"
)

// State is the mid-flight view of one conversion handed to the profile
// callbacks: every extracted table and payload keyed by role, plus the
// primary file's transfer syntax.
type State struct {
	Profile  *Profile
	Tables   map[catalog.Role]*entry.Table
	Payloads map[catalog.Role]*extract.Payload
	Syntax   extract.TransferSyntax
}

// Table returns the extracted table for a role, nil when the role was not
// part of this job.
func (s *State) Table(role catalog.Role) *entry.Table {
	return s.Tables[role]
}

// Profile declares one device protocol for the engine.
type Profile struct {
	// Device and Name identify the protocol, e.g. "cirrus" / "heightmap".
	Device string
	Name   string

	Rule *catalog.ConversionRule
	Maps []catalog.Map

	// Dictionary resolves the device's private tags. Optional.
	Dictionary *catalog.Dictionary

	// Primary is the role whose file the conversion rule is evaluated
	// against. Companions lists required supporting roles; Optional lists
	// roles used when present.
	Primary    catalog.Role
	Companions []catalog.Role
	Optional   []catalog.Role

	// CompanionTags lists the tags to extract per companion role, on top of
	// the tags the mapping table already implies.
	CompanionTags map[catalog.Role][]tag.Tag

	// ExtraTags are extracted from the primary beyond the rule's own tags,
	// for callbacks that need context the rule does not declare.
	ExtraTags []tag.Tag

	// FloatPayload selects the floating-point alternate payload on the
	// primary file.
	FloatPayload bool

	// Transcode computes a derived pixel payload. Nil means the primary's
	// payload passes through untouched.
	Transcode func(*State) (*extract.Payload, error)

	// Synthesize builds the compound sequences the rule cannot declare.
	// Nil means no synthesized elements.
	Synthesize func(*State) ([]*dicom.Element, error)

	Fixups []writer.Fixup
}

// Job names the input file per role and where the output goes.
type Job struct {
	Inputs     map[catalog.Role]string
	OutputDir  string
	OutputName string
	// Cache, when set, memoizes companion extraction across the jobs of a
	// batch. The primary file is always parsed fresh.
	Cache *extract.Cache
}

// Convert runs one job against a profile and returns the output path. Any
// failed stage aborts the whole job; no partial output file survives.
func Convert(ctx context.Context, p *Profile, job Job) (string, error) {
	if p == nil || p.Rule == nil {
		return "", errors.WrapFatal(errors.ErrUnknownProfile, "Engine", "Convert", "nil profile")
	}
	primaryPath, ok := job.Inputs[p.Primary]
	if !ok {
		return "", errors.WrapMissing(errors.ErrMissingInput, "Engine", "Convert",
			fmt.Sprintf("primary role %s", p.Primary))
	}
	for _, role := range p.Companions {
		if _, ok := job.Inputs[role]; !ok {
			return "", errors.WrapMissing(errors.ErrMissingCompanion, "Engine", "Convert",
				fmt.Sprintf("required role %s", role))
		}
	}

	state := &State{
		Profile:  p,
		Tables:   make(map[catalog.Role]*entry.Table),
		Payloads: make(map[catalog.Role]*extract.Payload),
	}

	primary, err := extract.Extract(primaryPath, p.Rule.AllTags(p.ExtraTags...), extract.Options{
		Dictionary:   p.Dictionary,
		Forced:       p.Rule.ForcedElements(),
		FloatPayload: p.FloatPayload,
	})
	if err != nil {
		return "", err
	}
	state.Tables[p.Primary] = primary.Table
	state.Payloads[p.Primary] = primary.Payload
	state.Syntax = primary.Syntax

	for _, role := range append(append([]catalog.Role{}, p.Companions...), p.Optional...) {
		path, ok := job.Inputs[role]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", errors.WrapFatal(err, "Engine", "Convert", "canceled")
		}
		res, err := extractCompanion(job.Cache, path, p.companionTags(role), extract.Options{Dictionary: p.Dictionary})
		if err != nil {
			return "", err
		}
		state.Tables[role] = res.Table
		state.Payloads[role] = res.Payload
	}

	result, err := evaluate.Evaluate(p.Rule, p.Maps, primary.Table, companionSources(state, p))
	if err != nil {
		return "", err
	}

	payload := primary.Payload
	if p.Transcode != nil {
		if payload, err = p.Transcode(state); err != nil {
			return "", err
		}
	}

	var synthesized []*dicom.Element
	if p.Synthesize != nil {
		if synthesized, err = p.Synthesize(state); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return "", errors.WrapFatal(err, "Engine", "Convert", "create "+job.OutputDir)
	}
	name := job.OutputName
	if name == "" {
		name = defaultName(p, result)
	}
	out := filepath.Join(job.OutputDir, name)

	err = writer.Write(out, writer.Output{
		Syntax:      state.Syntax,
		Result:      result,
		Synthesized: synthesized,
		Payload:     payload,
		Fixups:      p.Fixups,
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// extractCompanion parses a companion file, through the batch cache when one
// is configured.
func extractCompanion(c *extract.Cache, path string, tags []tag.Tag, opts extract.Options) (*extract.Result, error) {
	if c != nil {
		return c.Extract(path, tags, opts)
	}
	return extract.Extract(path, tags, opts)
}

// companionTags is the union of the profile's declared tags for a role and
// every tag the mapping table reads from that role.
func (p *Profile) companionTags(role catalog.Role) []tag.Tag {
	var order []tag.Tag
	seen := make(map[tag.Tag]struct{})
	add := func(t tag.Tag) {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			order = append(order, t)
		}
	}
	for _, t := range p.CompanionTags[role] {
		add(t)
	}
	for _, m := range p.Maps {
		if m.Role != role {
			continue
		}
		for _, t := range m.MappedTags {
			add(t)
		}
	}
	return order
}

// companionSources narrows the state tables to the evaluator's view: every
// extracted role except the primary.
func companionSources(state *State, p *Profile) evaluate.Sources {
	sources := make(evaluate.Sources, len(state.Tables))
	for role, tbl := range state.Tables {
		if role == p.Primary {
			continue
		}
		sources[role] = tbl
	}
	return sources
}

// defaultName derives the output file name from the resolved SOP instance.
func defaultName(p *Profile, res *evaluate.Result) string {
	for _, f := range res.Header {
		if f.Element.Tag != tag.SOPInstanceUID {
			continue
		}
		if vals, ok := f.Value.([]string); ok && len(vals) > 0 {
			return vals[0] + ".dcm"
		}
	}
	return p.Device + "_" + p.Name + ".dcm"
}
