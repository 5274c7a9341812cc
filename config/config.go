// Package config loads and validates the pipeline's YAML configuration.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
)

// maxConfigSize bounds the config file size to keep a malformed or
// mis-pointed path from being slurped whole.
const maxConfigSize = 1 << 20

// Config is the root pipeline configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
	Jobs     []JobConfig    `yaml:"jobs"`
}

// PipelineConfig controls the batch runner.
type PipelineConfig struct {
	// Workers is the conversion concurrency. Zero means one worker per CPU.
	Workers int `yaml:"workers"`
	// QueueSize bounds the number of jobs waiting for a worker.
	QueueSize int `yaml:"queue_size"`
	// OutputDir is where converted files and the run manifest land.
	OutputDir string `yaml:"output_dir"`
	// ManifestName overrides the default manifest file name.
	ManifestName string `yaml:"manifest_name"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// JobConfig names one conversion: the device/profile pair and the input file
// per role.
type JobConfig struct {
	Device  string            `yaml:"device"`
	Profile string            `yaml:"profile"`
	Inputs  map[string]string `yaml:"inputs"`
	// Output overrides the derived output file name.
	Output string `yaml:"output,omitempty"`
}

// Load reads, parses and validates a config file, applying defaults.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WrapMissing(errors.ErrMissingConfig, "Config", "Load", "stat "+path)
	}
	if info.Size() > maxConfigSize {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Load",
			fmt.Sprintf("config file %s exceeds %d bytes", path, maxConfigSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "Config", "Load", "read "+path)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Load", "parse "+path)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = runtime.NumCPU()
	}
	if c.Pipeline.QueueSize <= 0 {
		c.Pipeline.QueueSize = 256
	}
	if c.Pipeline.ManifestName == "" {
		c.Pipeline.ManifestName = "manifest.json"
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = 9090
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the config for problems defaults cannot paper over.
func (c *Config) Validate() error {
	if c.Pipeline.OutputDir == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"pipeline.output_dir is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown logging.level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown logging.format %q", c.Logging.Format))
	}

	for i, job := range c.Jobs {
		if job.Device == "" || job.Profile == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("jobs[%d] needs device and profile", i))
		}
		if len(job.Inputs) == 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("jobs[%d] declares no inputs", i))
		}
	}
	return nil
}

// ToYAML renders the effective config for debugging.
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", errors.WrapFatal(err, "Config", "ToYAML", "marshal config")
	}
	return string(data), nil
}
