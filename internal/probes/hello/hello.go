// Package hello supplies the "hello" built-in module: a single
// greeting probe that emits a static text measurement. Useful as a
// minimal end-to-end smoke test of the scheduler/dispatcher/sender
// pipeline.
package hello

import (
	"time"

	"github.com/dmagro/dms-agent/internal/collector"
	"github.com/dmagro/dms-agent/internal/messaging"
	"github.com/dmagro/dms-agent/internal/registry"
)

// ModuleID is the registered identifier of this module.
const ModuleID registry.ModuleID = "hello"

// GreetingProbeID names the module's single probe.
const GreetingProbeID registry.ProbeID = "greeting"

// Module is the hello built-in module.
type Module struct {
	every   time.Duration
	message string
}

// New constructs a hello Module whose greeting probe fires every
// `every` and emits `message` as its measurement's text value.
func New(every time.Duration, message string) *Module {
	if message == "" {
		message = "hello, world"
	}
	return &Module{every: every, message: message}
}

func (m *Module) ID() registry.ModuleID { return ModuleID }

func (m *Module) Schedules() []registry.ProbeSchedule {
	return []registry.ProbeSchedule{
		{Every: m.every, Probe: GreetingProbeID},
	}
}

func (m *Module) Probe(id registry.ProbeID) (registry.Probe, bool) {
	if id != GreetingProbeID {
		return nil, false
	}
	return greetingProbe{message: m.message}, true
}

type greetingProbe struct {
	message string
}

func (p greetingProbe) Run(c *collector.Collector) error {
	c.Collect("local", "hello", "greeting", messaging.Str(p.message))
	return nil
}

func (p greetingProbe) RunMode() registry.RunMode { return registry.SharedThread }
