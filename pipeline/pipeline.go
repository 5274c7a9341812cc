// Package pipeline runs batches of conversion jobs across a fixed-size
// worker pool. One failed conversion is recorded and never aborts the batch;
// the run's outcome lives in the manifest.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/AI-READI/fairhub-pipeline-sub000/catalog"
	"github.com/AI-READI/fairhub-pipeline-sub000/convert"
	"github.com/AI-READI/fairhub-pipeline-sub000/device"
	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
	"github.com/AI-READI/fairhub-pipeline-sub000/extract"
	"github.com/AI-READI/fairhub-pipeline-sub000/manifest"
	"github.com/AI-READI/fairhub-pipeline-sub000/metric"
	"github.com/AI-READI/fairhub-pipeline-sub000/pkg/worker"
)

// Job names one conversion by device/profile and its input file per role.
type Job struct {
	Device  string
	Profile string
	Inputs  map[string]string
	// Output overrides the derived output file name.
	Output string
}

// Options configures a Runner.
type Options struct {
	Workers   int
	QueueSize int
	OutputDir string
	Logger    *slog.Logger
	Registry  *device.Registry
	Metrics   *metric.Registry
}

// companionCacheSize bounds how many parsed companion files one batch keeps
// in memory. Tables are metadata-only, so entries are small.
const companionCacheSize = 64

// Runner executes batches of jobs.
type Runner struct {
	workers   int
	queueSize int
	outputDir string
	logger    *slog.Logger
	devices   *device.Registry
	metrics   *metric.Registry
	cache     *extract.Cache
}

// NewRunner builds a runner. A nil device registry defaults to every
// supported family; a nil logger discards nothing but logs to the default
// handler.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	devices := opts.Registry
	if devices == nil {
		devices = device.Default()
	}
	// A nil cache only disables memoization, never the run.
	tableCache, err := extract.NewCache(companionCacheSize)
	if err != nil {
		logger.Warn("companion cache disabled", "error", err)
		tableCache = nil
	}
	return &Runner{
		workers:   opts.Workers,
		queueSize: opts.QueueSize,
		outputDir: opts.OutputDir,
		logger:    logger,
		devices:   devices,
		metrics:   opts.Metrics,
		cache:     tableCache,
	}
}

// Run converts every job and returns the run manifest. The only error Run
// itself returns is a pool lifecycle failure; per-job errors live in the
// manifest records.
func (r *Runner) Run(ctx context.Context, jobs []Job) (*manifest.Manifest, error) {
	m := manifest.New()
	r.logger.Info("pipeline run starting",
		"run_id", m.RunID, "jobs", len(jobs), "workers", r.workers)

	var opts []worker.Option[Job]
	if r.metrics != nil {
		opts = append(opts, worker.WithRegistrar[Job](r.metrics, "conversion_workers"))
		r.metrics.CoreMetrics().WorkerPoolSize.Set(float64(r.workers))
	}

	pool := worker.NewPool(r.workers, r.queueSize, func(ctx context.Context, job Job) error {
		r.runJob(ctx, m, job)
		return nil
	}, opts...)

	if err := pool.Start(ctx); err != nil {
		return nil, errors.WrapFatal(err, "Pipeline", "Run", "start worker pool")
	}

	for _, job := range jobs {
		if err := pool.SubmitWait(ctx, job); err != nil {
			r.logger.Warn("batch submission interrupted", "error", err)
			break
		}
	}

	if err := pool.Stop(10 * time.Minute); err != nil {
		return nil, errors.WrapFatal(err, "Pipeline", "Run", "drain worker pool")
	}

	m.Finish()
	summary := m.Summarize()
	r.logger.Info("pipeline run finished",
		"run_id", m.RunID,
		"converted", summary.ByStatus[manifest.StatusConverted],
		"failed", summary.ByStatus[manifest.StatusFailed])
	return m, nil
}

// runJob converts one job and journals the outcome.
func (r *Runner) runJob(ctx context.Context, m *manifest.Manifest, job Job) {
	logger := r.logger.With("device", job.Device, "profile", job.Profile)
	record := manifest.Record{
		Device:  job.Device,
		Profile: job.Profile,
		Inputs:  job.Inputs,
	}
	start := time.Now()

	if r.metrics != nil {
		r.metrics.CoreMetrics().JobsInFlight.Inc()
		defer r.metrics.CoreMetrics().JobsInFlight.Dec()
	}

	out, err := r.convert(ctx, job)
	record.Duration = time.Since(start).Seconds()

	if err != nil {
		record.Status = manifest.StatusFailed
		record.Error = err.Error()
		logger.Error("conversion failed", "error", err)
		if r.metrics != nil {
			core := r.metrics.CoreMetrics()
			core.RecordConversion(job.Device, job.Profile, string(manifest.StatusFailed), time.Since(start))
			core.RecordError(job.Device, job.Profile, errors.Classify(err).String())
		}
		m.Append(record)
		return
	}

	record.Status = manifest.StatusConverted
	record.Output = out
	if sum, n, err := manifest.Checksum(out); err == nil {
		record.Checksum = sum
		record.Bytes = n
		if r.metrics != nil {
			r.metrics.CoreMetrics().RecordOutput(job.Device, job.Profile, n)
		}
	} else {
		logger.Warn("checksum failed", "output", out, "error", err)
	}

	logger.Info("conversion finished", "output", out, "bytes", record.Bytes)
	if r.metrics != nil {
		r.metrics.CoreMetrics().RecordConversion(
			job.Device, job.Profile, string(manifest.StatusConverted), time.Since(start))
	}
	m.Append(record)
}

// convert resolves the profile and runs the engine for one job.
func (r *Runner) convert(ctx context.Context, job Job) (string, error) {
	profile, err := r.devices.Lookup(job.Device, job.Profile)
	if err != nil {
		return "", err
	}

	inputs := make(map[catalog.Role]string, len(job.Inputs))
	for role, path := range job.Inputs {
		inputs[catalog.Role(role)] = path
	}

	return convert.Convert(ctx, profile, convert.Job{
		Inputs:     inputs,
		OutputDir:  r.outputDir,
		OutputName: job.Output,
		Cache:      r.cache,
	})
}
