// Command dms-agent is the distributed monitoring agent's entry
// point: it parses flags, loads configuration, builds the logger, and
// hands off to internal/supervisor.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/dms-agent/internal/config"
	"github.com/dmagro/dms-agent/internal/env"
	"github.com/dmagro/dms-agent/internal/logging"
	"github.com/dmagro/dms-agent/internal/probes"
	"github.com/dmagro/dms-agent/internal/registry"
	"github.com/dmagro/dms-agent/internal/status"
	"github.com/dmagro/dms-agent/internal/supervisor"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		logSpec      string
		processorURL string
		cfgPath      string
	)

	cmd := &cobra.Command{
		Use:     "dms-agent",
		Short:   "Run the distributed monitoring agent",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(logSpec, processorURL, cfgPath)
		},
	}

	cmd.Flags().StringVarP(&logSpec, "log-spec", "l", "", "log level (debug|info|warn|error; default "+config.DefaultLogSpec+", overrides config)")
	cmd.Flags().StringVarP(&processorURL, "processor-url", "c", "", "downstream processor socket URL (overrides config)")
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a YAML module/probe configuration file")

	return cmd
}

func run(logSpec, processorURL, cfgPath string) error {
	env.Load()

	var cfg *config.Config
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if logSpec != "" {
		cfg.LogSpec = logSpec
	}
	if processorURL != "" {
		cfg.ProcessorURL = processorURL
	}

	log, err := logging.New(cfg.LogSpec, "dms-agent")
	if err != nil {
		return err
	}

	modules, err := probes.Build(cfg.Modules)
	if err != nil {
		return err
	}

	var loader func() ([]registry.Module, error)
	if cfgPath != "" {
		loader = func() ([]registry.Module, error) {
			reloaded, err := config.Load(cfgPath)
			if err != nil {
				return nil, err
			}
			return probes.Build(reloaded.Modules)
		}
	}

	sup, err := supervisor.New(supervisor.Config{
		ProcessorURL: cfg.ProcessorURL,
		BucketWidth:  cfg.BucketWidth,
		Modules:      modules,
		Loader:       loader,
		Log:          log,
	})
	if err != nil {
		return err
	}

	status.Render(status.Report{
		Timestamp: time.Now(),
		Processor: cfg.ProcessorURL,
		Modules:   sup.Registry().Modules(),
	})

	runErr := sup.Run()

	ready, overrun := sup.Recorder().Counts()
	status.Render(status.Report{
		Timestamp: time.Now(),
		Processor: cfg.ProcessorURL,
		Modules:   sup.Registry().Modules(),
		Ready:     ready,
		Overrun:   overrun,
		Gone:      sup.GoneCount(),
		Latency:   sup.Recorder().Latency(),
	})

	return runErr
}
