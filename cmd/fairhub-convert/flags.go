package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	OutputDir   string
	LogLevel    string
	LogFormat   string
	Workers     int
	MetricsPort int
	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("FAIRHUB_CONFIG", "pipeline.yaml"),
		"Path to pipeline configuration file (env: FAIRHUB_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("FAIRHUB_CONFIG", "pipeline.yaml"),
		"Path to pipeline configuration file (env: FAIRHUB_CONFIG)")

	flag.StringVar(&cfg.OutputDir, "output",
		getEnv("FAIRHUB_OUTPUT", ""),
		"Output directory, overrides pipeline.output_dir (env: FAIRHUB_OUTPUT)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("FAIRHUB_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error (env: FAIRHUB_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("FAIRHUB_LOG_FORMAT", ""),
		"Log format: json, text (env: FAIRHUB_LOG_FORMAT)")

	flag.IntVar(&cfg.Workers, "workers",
		getEnvInt("FAIRHUB_WORKERS", 0),
		"Conversion concurrency, 0 uses the config value (env: FAIRHUB_WORKERS)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("FAIRHUB_METRICS_PORT", 0),
		"Metrics port, 0 uses the config value (env: FAIRHUB_METRICS_PORT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()
	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
	}

	if cfg.LogLevel != "" && !contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "" && !contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", cfg.Workers)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - ophthalmic imaging conversion pipeline

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run the batch described by a pipeline file
  %s --config=/data/pipeline.yaml

  # Override output directory and concurrency
  %s --config=pipeline.yaml --output=/data/out --workers=8

  # Validate configuration only
  %s --config=pipeline.yaml --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helpers
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
