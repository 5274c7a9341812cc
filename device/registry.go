package device

import (
	"fmt"
	"sort"

	"github.com/AI-READI/fairhub-pipeline-sub000/convert"
	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
)

// Family groups the profiles of one acquisition device.
type Family struct {
	Name     string
	Profiles map[string]*convert.Profile
}

// Registry is an explicit lookup of device families. Callers construct the
// registry they need; there is no process-wide registration.
type Registry struct {
	families map[string]*Family
}

// NewRegistry builds a registry over the given families, last-wins on a
// repeated family name.
func NewRegistry(families ...*Family) *Registry {
	r := &Registry{families: make(map[string]*Family, len(families))}
	for _, f := range families {
		r.families[f.Name] = f
	}
	return r
}

// Default is the registry of every supported family.
func Default() *Registry {
	return NewRegistry(Cirrus(), Maestro2Triton(), Spectralis(), Flio())
}

// Lookup resolves a device/profile pair.
func (r *Registry) Lookup(device, profile string) (*convert.Profile, error) {
	f, ok := r.families[device]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrUnknownDevice, "Registry", "Lookup", device)
	}
	p, ok := f.Profiles[profile]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrUnknownProfile, "Registry", "Lookup",
			fmt.Sprintf("%s/%s", device, profile))
	}
	return p, nil
}

// Devices lists the registered family names, sorted.
func (r *Registry) Devices() []string {
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profiles lists the profile names of one family, sorted.
func (r *Registry) Profiles(device string) ([]string, error) {
	f, ok := r.families[device]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrUnknownDevice, "Registry", "Profiles", device)
	}
	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
