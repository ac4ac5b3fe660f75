// Package system supplies the "system" built-in module: cpu_load and
// goroutines probes, each a typed local OS read that emits its result
// through the collector it's given.
package system

import (
	"errors"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dmagro/dms-agent/internal/collector"
	"github.com/dmagro/dms-agent/internal/messaging"
	"github.com/dmagro/dms-agent/internal/registry"
)

// ModuleID is the registered identifier of this module.
const ModuleID registry.ModuleID = "system"

const (
	CPULoadProbeID    registry.ProbeID = "cpu_load"
	GoroutinesProbeID registry.ProbeID = "goroutines"
)

// Module is the system built-in module.
type Module struct {
	cpuLoadEvery    time.Duration
	goroutinesEvery time.Duration
}

// New constructs a system Module with independent cadences for each probe.
func New(cpuLoadEvery, goroutinesEvery time.Duration) *Module {
	return &Module{cpuLoadEvery: cpuLoadEvery, goroutinesEvery: goroutinesEvery}
}

func (m *Module) ID() registry.ModuleID { return ModuleID }

func (m *Module) Schedules() []registry.ProbeSchedule {
	return []registry.ProbeSchedule{
		{Every: m.cpuLoadEvery, Probe: CPULoadProbeID},
		{Every: m.goroutinesEvery, Probe: GoroutinesProbeID},
	}
}

func (m *Module) Probe(id registry.ProbeID) (registry.Probe, bool) {
	switch id {
	case CPULoadProbeID:
		return cpuLoadProbe{}, true
	case GoroutinesProbeID:
		return goroutinesProbe{}, true
	default:
		return nil, false
	}
}

type cpuLoadProbe struct{}

func (cpuLoadProbe) Run(c *collector.Collector) error {
	load, err := readLoadAverage()
	if err != nil {
		load = fallbackLoadEstimate()
	}
	c.Collect("local", "system", "cpu_load", messaging.Flt(load))
	return nil
}

func (cpuLoadProbe) RunMode() registry.RunMode { return registry.SharedThread }

type goroutinesProbe struct{}

func (goroutinesProbe) Run(c *collector.Collector) error {
	c.Collect("local", "system", "goroutines", messaging.Int(int64(runtime.NumGoroutine())))
	return nil
}

func (goroutinesProbe) RunMode() registry.RunMode { return registry.SharedThread }

// readLoadAverage reads the 1-minute load average from /proc/loadavg,
// which exists on Linux. On platforms without it, the caller falls
// back to fallbackLoadEstimate.
func readLoadAverage() (float64, error) {
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, errors.New("/proc/loadavg: empty contents")
	}
	return strconv.ParseFloat(fields[0], 64)
}

// fallbackLoadEstimate provides a portable, approximate substitute for
// platforms lacking /proc/loadavg: live goroutines per available CPU.
// It is not a true OS load average, only a liveness signal.
func fallbackLoadEstimate() float64 {
	cpus := runtime.NumCPU()
	if cpus <= 0 {
		cpus = 1
	}
	return float64(runtime.NumGoroutine()) / float64(cpus)
}
