package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_SummarizeAndDependencies(t *testing.T) {
	m := New()
	assert.NotEmpty(t, m.RunID)

	m.Append(Record{
		Device: "cirrus", Profile: "heightmap", Status: StatusConverted,
		Inputs: map[string]string{"SEG": "/in/seg.dcm", "OCT": "/in/oct.dcm"},
		Output: "/out/hm.dcm",
	})
	m.Append(Record{
		Device: "cirrus", Profile: "oct", Status: StatusFailed,
		Inputs: map[string]string{"OCT": "/in/oct.dcm"},
		Error:  "parse failed",
	})
	m.Append(Record{
		Device: "flio", Profile: "flio", Status: StatusConverted,
		Inputs: map[string]string{"FLOW": "/in/flio.dcm"},
		Output: "/out/flio.dcm",
	})

	s := m.Summarize()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.ByStatus[StatusConverted])
	assert.Equal(t, 1, s.ByStatus[StatusFailed])
	assert.Equal(t, 1, s.ByProfile["cirrus/heightmap"])

	deps := m.Dependencies()
	require.Len(t, deps, 2, "failed record contributes no dependency edge")
	assert.Equal(t, []string{"/in/oct.dcm", "/in/seg.dcm"}, deps["/out/hm.dcm"])
}

func TestManifest_WriteFile(t *testing.T) {
	m := New()
	m.Append(Record{
		Device: "spectralis", Profile: "oct", Status: StatusConverted,
		Inputs: map[string]string{"OCT": "/in/oct.dcm"},
		Output: "/out/oct.dcm", Checksum: "abc123", Bytes: 2048, Duration: 1.5,
	})
	m.Finish()

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, m.RunID, doc["run_id"])
	assert.NotNil(t, doc["summary"])
	assert.NotNil(t, doc["dependencies"])
	records, ok := doc["records"].([]any)
	require.True(t, ok)
	assert.Len(t, records, 1)
}

func TestChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("fairhub"), 0o644))

	sum, n, err := Checksum(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Len(t, sum, 64)

	sum2, _, err := Checksum(path)
	require.NoError(t, err)
	assert.Equal(t, sum, sum2, "checksum is deterministic")

	_, _, err = Checksum(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
