// Package manifest records what a pipeline run produced: one record per
// output file with its inputs, outcome and checksum, a dependency map from
// outputs back to contributing inputs, and a quality-control summary. The
// manifest is the run's audit trail and is serialized as JSON next to the
// outputs.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
)

// Status classifies one record's outcome.
type Status string

const (
	StatusConverted Status = "converted"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Record is one conversion outcome.
type Record struct {
	Device   string            `json:"device"`
	Profile  string            `json:"profile"`
	Inputs   map[string]string `json:"inputs"`
	Output   string            `json:"output,omitempty"`
	Status   Status            `json:"status"`
	Error    string            `json:"error,omitempty"`
	Checksum string            `json:"checksum,omitempty"`
	Bytes    int64             `json:"bytes,omitempty"`
	Duration float64           `json:"duration_seconds"`
}

// Summary is the per-run quality-control rollup.
type Summary struct {
	Total     int            `json:"total"`
	ByStatus  map[Status]int `json:"by_status"`
	ByProfile map[string]int `json:"by_profile"`
}

// Manifest is the journal of one pipeline run. Safe for concurrent Append.
type Manifest struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitempty"`
	Records  []Record  `json:"records"`

	mu sync.Mutex
}

// New starts a manifest for a fresh run.
func New() *Manifest {
	return &Manifest{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
	}
}

// Append adds one record to the journal.
func (m *Manifest) Append(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, r)
}

// Finish stamps the run's end time.
func (m *Manifest) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Finished = time.Now().UTC()
}

// Summarize computes the QC rollup over the journal.
func (m *Manifest) Summarize() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{
		Total:     len(m.Records),
		ByStatus:  make(map[Status]int),
		ByProfile: make(map[string]int),
	}
	for _, r := range m.Records {
		s.ByStatus[r.Status]++
		s.ByProfile[r.Device+"/"+r.Profile]++
	}
	return s
}

// Dependencies maps each output file to the sorted list of input files it
// was computed from. Failed records carry no output and are omitted.
func (m *Manifest) Dependencies() map[string][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	deps := make(map[string][]string)
	for _, r := range m.Records {
		if r.Output == "" {
			continue
		}
		inputs := make([]string, 0, len(r.Inputs))
		for _, path := range r.Inputs {
			inputs = append(inputs, path)
		}
		sort.Strings(inputs)
		deps[r.Output] = inputs
	}
	return deps
}

// document is the serialized shape: journal plus derived views.
type document struct {
	RunID        string              `json:"run_id"`
	Started      time.Time           `json:"started"`
	Finished     time.Time           `json:"finished,omitempty"`
	Summary      Summary             `json:"summary"`
	Dependencies map[string][]string `json:"dependencies"`
	Records      []Record            `json:"records"`
}

// WriteFile serializes the manifest to path as indented JSON.
func (m *Manifest) WriteFile(path string) error {
	doc := document{
		Summary:      m.Summarize(),
		Dependencies: m.Dependencies(),
	}

	m.mu.Lock()
	doc.RunID = m.RunID
	doc.Started = m.Started
	doc.Finished = m.Finished
	doc.Records = m.Records
	m.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.WrapFatal(err, "Manifest", "WriteFile", "marshal manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapFatal(err, "Manifest", "WriteFile", "write "+path)
	}
	return nil
}

// Checksum computes the hex SHA-256 of a file.
func Checksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.WrapMissing(err, "Manifest", "Checksum", "open "+path)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, errors.WrapFatal(err, "Manifest", "Checksum", "hash "+path)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
