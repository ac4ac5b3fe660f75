// Package probes wires config.ModuleConfig entries to the concrete
// built-in modules (hello, system), used by both the startup loader
// and reload.
package probes

import (
	"fmt"
	"time"

	"github.com/dmagro/dms-agent/internal/config"
	"github.com/dmagro/dms-agent/internal/probes/hello"
	"github.com/dmagro/dms-agent/internal/probes/system"
	"github.com/dmagro/dms-agent/internal/registry"
)

// Build translates a Config's module list into live registry.Module
// values. Each built-in module's probes must all be given a cadence or
// Build returns an error; an unknown module ID does the same. Probe
// entries whose ID the module does not define are ignored.
func Build(modules []config.ModuleConfig) ([]registry.Module, error) {
	var out []registry.Module
	for _, m := range modules {
		switch m.ID {
		case "hello":
			every, message, err := helloArgs(m)
			if err != nil {
				return nil, err
			}
			out = append(out, hello.New(every, message))
		case "system":
			cpuEvery, goroutinesEvery, err := systemArgs(m)
			if err != nil {
				return nil, err
			}
			out = append(out, system.New(cpuEvery, goroutinesEvery))
		default:
			return nil, fmt.Errorf("probes: unknown module id %q", m.ID)
		}
	}
	return out, nil
}

func helloArgs(m config.ModuleConfig) (every time.Duration, message string, err error) {
	for _, p := range m.Probes {
		if p.ID == string(hello.GreetingProbeID) {
			every = p.Every
		}
	}
	if every == 0 {
		return 0, "", fmt.Errorf("probes: module %q missing probe %q", m.ID, hello.GreetingProbeID)
	}
	return every, "hello, world", nil
}

func systemArgs(m config.ModuleConfig) (cpuEvery, goroutinesEvery time.Duration, err error) {
	for _, p := range m.Probes {
		switch p.ID {
		case string(system.CPULoadProbeID):
			cpuEvery = p.Every
		case string(system.GoroutinesProbeID):
			goroutinesEvery = p.Every
		}
	}
	if cpuEvery == 0 || goroutinesEvery == 0 {
		return 0, 0, fmt.Errorf("probes: module %q missing cpu_load/goroutines probe cadence", m.ID)
	}
	return cpuEvery, goroutinesEvery, nil
}
