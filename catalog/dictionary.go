package catalog

import (
	"github.com/suyashkumar/dicom/pkg/tag"
)

// DictEntry describes one private or retired tag a device writes outside the
// standard dictionary.
type DictEntry struct {
	Tag  tag.Tag
	Name string
	VR   string
	VM   string
}

// Dictionary is an explicit, per-conversion vocabulary for tags the standard
// dictionary does not know. It replaces process-wide keyword registration:
// a Dictionary is built once per device and passed into the extractor, so the
// full vocabulary for a run is visible in one place and nothing mutates
// shared state at import time.
type Dictionary struct {
	entries map[tag.Tag]DictEntry
}

// NewDictionary builds a dictionary from literal entries. Duplicate tags
// overwrite last-wins, matching catalog declaration semantics.
func NewDictionary(entries ...DictEntry) *Dictionary {
	d := &Dictionary{entries: make(map[tag.Tag]DictEntry, len(entries))}
	for _, e := range entries {
		d.entries[e.Tag] = e
	}
	return d
}

// Find returns the entry for a tag, if declared.
func (d *Dictionary) Find(t tag.Tag) (DictEntry, bool) {
	if d == nil {
		return DictEntry{}, false
	}
	e, ok := d.entries[t]
	return e, ok
}

// Name resolves a tag to a keyword: the dictionary entry if declared, then
// the standard dictionary, then the empty string.
func (d *Dictionary) Name(t tag.Tag) string {
	if e, ok := d.Find(t); ok {
		return e.Name
	}
	if info, err := tag.Find(t); err == nil {
		return info.Name
	}
	return ""
}

// VR resolves a tag to its declared value representation, falling back to the
// standard dictionary and finally "UN".
func (d *Dictionary) VR(t tag.Tag) string {
	if e, ok := d.Find(t); ok {
		return e.VR
	}
	if info, err := tag.Find(t); err == nil {
		return info.VR
	}
	return "UN"
}

// Len returns the number of declared entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}
