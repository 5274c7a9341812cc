package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/manifest"
	"github.com/AI-READI/fairhub-pipeline-sub000/metric"
	"github.com/AI-READI/fairhub-pipeline-sub000/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeCirrusOCT builds a minimal structural file the cirrus oct profile
// accepts.
func writeCirrusOCT(t *testing.T, dir, instanceUID string) string {
	t.Helper()
	path := filepath.Join(dir, instanceUID+".src.dcm")
	testutil.WriteFile(t, path, append(
		testutil.MetaElements(t, "1.2.840.10008.5.1.4.1.1.77.1.5.4", instanceUID),
		testutil.MustElement(t, tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.77.1.5.4"}),
		testutil.MustElement(t, tag.SOPInstanceUID, []string{instanceUID}),
		testutil.MustElement(t, tag.StudyInstanceUID, []string{"1.2.3"}),
		testutil.MustElement(t, tag.SeriesInstanceUID, []string{"1.2.3.4"}),
		testutil.MustElement(t, tag.Modality, []string{"OPT"}),
		testutil.MustElement(t, tag.PatientID, []string{"AIREADI-0001"}),
		testutil.MustElement(t, tag.PixelSpacing, []string{"0.0117", "0.0469"}),
		testutil.MustElement(t, tag.PixelData, testutil.SmallPixelData([]byte{1, 2, 3, 4})),
	))
	return path
}

func TestRunner_BatchIsolation(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	registry := metric.NewRegistry()

	runner := NewRunner(Options{
		Workers:   2,
		QueueSize: 8,
		OutputDir: outDir,
		Logger:    quietLogger(),
		Metrics:   registry,
	})

	jobs := []Job{
		{Device: "cirrus", Profile: "oct",
			Inputs: map[string]string{"OCT": writeCirrusOCT(t, dir, "1.2.3.4.1")}},
		{Device: "cirrus", Profile: "oct",
			Inputs: map[string]string{"OCT": filepath.Join(dir, "absent.dcm")}},
		{Device: "kowa", Profile: "oct",
			Inputs: map[string]string{"OCT": filepath.Join(dir, "whatever.dcm")}},
	}

	m, err := runner.Run(context.Background(), jobs)
	require.NoError(t, err, "per-job failures never fail the batch")

	summary := m.Summarize()
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[manifest.StatusConverted])
	assert.Equal(t, 2, summary.ByStatus[manifest.StatusFailed])

	var converted *manifest.Record
	for i := range m.Records {
		if m.Records[i].Status == manifest.StatusConverted {
			converted = &m.Records[i]
		}
	}
	require.NotNil(t, converted)
	assert.Equal(t, filepath.Join(outDir, "1.2.3.4.1.dcm"), converted.Output)
	assert.NotEmpty(t, converted.Checksum)
	assert.Greater(t, converted.Bytes, int64(0))

	_, err = os.Stat(converted.Output)
	assert.NoError(t, err)

	deps := m.Dependencies()
	require.Len(t, deps, 1)
}

func TestRunner_ManifestFile(t *testing.T) {
	dir := t.TempDir()
	runner := NewRunner(Options{
		Workers:   1,
		OutputDir: filepath.Join(dir, "out"),
		Logger:    quietLogger(),
	})

	m, err := runner.Run(context.Background(), []Job{
		{Device: "cirrus", Profile: "oct",
			Inputs: map[string]string{"OCT": writeCirrusOCT(t, dir, "1.2.3.4.9")}},
	})
	require.NoError(t, err)

	path := filepath.Join(dir, "out", "manifest.json")
	require.NoError(t, m.WriteFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRunner_EmptyBatch(t *testing.T) {
	runner := NewRunner(Options{
		Workers:   1,
		OutputDir: t.TempDir(),
		Logger:    quietLogger(),
	})

	m, err := runner.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Summarize().Total)
	assert.False(t, m.Finished.IsZero())
}
