// Package config loads the agent's static configuration: the
// processor URL, log level, scheduler bucket width, and the set of
// modules/probes to register at startup.
//
// DESIGN DECISIONS
// ================
// 1. YAML OVER JSON: comments matter in an ops-facing config file.
// 2. ABSENCE IS VALID: no --config flag means Default() supplies the
//    built-in module set at compiled-in cadences; config.yaml only
//    narrows or extends that, it is never required to boot the agent.
// 3. ENV EXPANSION: ${VAR} (and $VAR) patterns anywhere in the file are
//    expanded from the environment before parsing, the same
//    ${VAR}-expansion convention used for secrets in ops-facing YAML
//    configs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultProcessorURL is used when neither a config file nor an
// explicit --processor-url flag supplies one.
const DefaultProcessorURL = "ipc:///tmp/dms_processor.ipc"

// DefaultBucketWidth is the scheduler's quantization window.
const DefaultBucketWidth = 100 * time.Millisecond

// DefaultLogSpec is the zerolog level name used when neither a config
// file nor an explicit --log-spec flag supplies one.
const DefaultLogSpec = "info"

// Config is the agent's full static configuration.
type Config struct {
	ProcessorURL string         `yaml:"processor_url,omitempty"`
	LogSpec      string         `yaml:"log_spec,omitempty"`
	BucketWidth  time.Duration  `yaml:"bucket_width,omitempty"`
	Modules      []ModuleConfig `yaml:"modules,omitempty"`
}

// ModuleConfig names a built-in module and the cadence for each of its
// probes. Which module IDs are recognized is decided by
// internal/probes's registration helper, not by this package.
type ModuleConfig struct {
	ID     string        `yaml:"id"`
	Probes []ProbeConfig `yaml:"probes"`
}

// ProbeConfig names one probe within a module and its firing cadence.
type ProbeConfig struct {
	ID    string        `yaml:"id"`
	Every time.Duration `yaml:"every"`
}

// Default returns the configuration used when no --config file is
// given: the built-in hello and system modules at reasonable cadences.
func Default() *Config {
	return &Config{
		ProcessorURL: DefaultProcessorURL,
		LogSpec:      DefaultLogSpec,
		BucketWidth:  DefaultBucketWidth,
		Modules: []ModuleConfig{
			{
				ID: "hello",
				Probes: []ProbeConfig{
					{ID: "greeting", Every: 5 * time.Second},
				},
			},
			{
				ID: "system",
				Probes: []ProbeConfig{
					{ID: "cpu_load", Every: 2 * time.Second},
					{ID: "goroutines", Every: 2 * time.Second},
				},
			},
		},
	}
}

// Load reads and parses a YAML config file at path, expanding ${VAR}
// references anywhere in its contents, then fills any field left
// unset from Default(). A missing processor_url, log_spec, or
// bucket_width in the file inherits the default rather than zeroing
// out the agent's behavior.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	defaults := Default()
	if cfg.ProcessorURL == "" {
		cfg.ProcessorURL = defaults.ProcessorURL
	}
	if cfg.LogSpec == "" {
		cfg.LogSpec = defaults.LogSpec
	}
	if cfg.BucketWidth == 0 {
		cfg.BucketWidth = defaults.BucketWidth
	}
	if len(cfg.Modules) == 0 {
		cfg.Modules = defaults.Modules
	}

	return &cfg, nil
}
