package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
)

func TestNewRegistry_CoreMetricsRegistered(t *testing.T) {
	r := NewRegistry()
	r.CoreMetrics().RecordConversion("cirrus", "heightmap", "converted", 250*time.Millisecond)
	r.CoreMetrics().RecordError("cirrus", "heightmap", "missing")
	r.CoreMetrics().RecordOutput("cirrus", "heightmap", 4096)

	families, err := r.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["fairhub_pipeline_conversions_total"])
	assert.True(t, names["fairhub_pipeline_conversion_duration_seconds"])
	assert.True(t, names["fairhub_pipeline_output_bytes_total"])
	assert.True(t, names["fairhub_pipeline_errors_total"])
	assert.True(t, names["go_goroutines"], "runtime collectors registered")
}

func TestRegistry_RegisterAndUnregister(t *testing.T) {
	r := NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "manifest_records_total",
		Help: "Manifest records written",
	})

	require.NoError(t, r.RegisterCounter("manifest", "records_total", counter))

	err := r.RegisterCounter("manifest", "records_total", counter)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	assert.True(t, r.Unregister("manifest", "records_total"))
	assert.False(t, r.Unregister("manifest", "records_total"))

	// Unregistered names are free again.
	require.NoError(t, r.RegisterCounter("manifest", "records_total", counter))
}

func TestRegistry_RegisterGaugeAndHistogram(t *testing.T) {
	r := NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pipeline_queue_depth",
		Help: "Jobs waiting for a worker",
	})
	require.NoError(t, r.RegisterGauge("pipeline", "queue_depth", gauge))

	hist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "extract_duration_seconds",
		Help: "Extraction duration",
	})
	require.NoError(t, r.RegisterHistogram("extract", "duration_seconds", hist))
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewRegistry()
	r.CoreMetrics().RecordConversion("spectralis", "oct", "converted", time.Second)

	handler := promhttp.HandlerFor(r.PrometheusRegistry(), promhttp.HandlerOpts{})
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "fairhub_pipeline_conversions_total")
	assert.Contains(t, buf.String(), `device="spectralis"`)
}
