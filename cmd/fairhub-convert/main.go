// fairhub-convert runs a batch of ophthalmic imaging conversions described by
// a pipeline configuration file and writes the converted files plus a run
// manifest to the output directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/AI-READI/fairhub-pipeline-sub000/config"
	"github.com/AI-READI/fairhub-pipeline-sub000/manifest"
	"github.com/AI-READI/fairhub-pipeline-sub000/metric"
	"github.com/AI-READI/fairhub-pipeline-sub000/pipeline"
)

// Version information (set by build process)
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "fairhub-convert"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			fmt.Fprintf(os.Stderr, "PANIC: %v\n%s\n", r, buf[:n])
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s (built %s)\n", appName, Version, BuildTime)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, cliCfg)

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	if cliCfg.Validate {
		rendered, err := cfg.ToYAML()
		if err != nil {
			return err
		}
		fmt.Printf("Configuration valid:\n%s", rendered)
		return nil
	}

	if len(cfg.Jobs) == 0 {
		logger.Warn("no jobs configured, nothing to do")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := metric.NewRegistry()
	var server *metric.Server
	if cfg.Metrics.Enabled {
		server = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		go func() {
			logger.Info("metrics endpoint up", "address", server.Address())
			if err := server.Start(); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			if err := server.Stop(); err != nil {
				logger.Warn("metrics server shutdown", "error", err)
			}
		}()
	}

	runner := pipeline.NewRunner(pipeline.Options{
		Workers:   cfg.Pipeline.Workers,
		QueueSize: cfg.Pipeline.QueueSize,
		OutputDir: cfg.Pipeline.OutputDir,
		Logger:    logger,
		Metrics:   registry,
	})

	jobs := make([]pipeline.Job, 0, len(cfg.Jobs))
	for _, j := range cfg.Jobs {
		jobs = append(jobs, pipeline.Job{
			Device:  j.Device,
			Profile: j.Profile,
			Inputs:  j.Inputs,
			Output:  j.Output,
		})
	}

	m, err := runner.Run(ctx, jobs)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	manifestPath := filepath.Join(cfg.Pipeline.OutputDir, cfg.Pipeline.ManifestName)
	if err := m.WriteFile(manifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	logger.Info("manifest written", "path", manifestPath)

	if failed := m.Summarize().ByStatus[manifest.StatusFailed]; failed > 0 {
		return fmt.Errorf("%d of %d conversions failed, see %s",
			failed, m.Summarize().Total, manifestPath)
	}
	return nil
}

// applyOverrides lets flags win over config file values.
func applyOverrides(cfg *config.Config, cli *CLIConfig) {
	if cli.OutputDir != "" {
		cfg.Pipeline.OutputDir = cli.OutputDir
	}
	if cli.Workers > 0 {
		cfg.Pipeline.Workers = cli.Workers
	}
	if cli.MetricsPort > 0 {
		cfg.Metrics.Port = cli.MetricsPort
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}
}
