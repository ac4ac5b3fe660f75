// Package registry implements the module registry that maps a
// ModuleID to a contributed Module, forwards its declared probe
// schedules to the cadence scheduler, and resolves scheduler tokens back
// to live Probe objects at dispatch time.
package registry

import (
	"time"

	"github.com/dmagro/dms-agent/internal/collector"
	"github.com/dmagro/dms-agent/internal/scheduler"
)

// ModuleID and ProbeID are opaque identifiers, unique per registration.
type ModuleID string
type ProbeID string

// RunMode is the declared execution mode of a Probe. The core only
// implements SharedThread; DedicatedThread/DedicatedProcess are named
// here as an extensibility point but have no behavior.
type RunMode int

const (
	SharedThread RunMode = iota
	DedicatedThread
	DedicatedProcess
)

// Probe is the capability the dispatcher consumes: it emits zero or more
// measurements through the collector it's given.
type Probe interface {
	Run(c *collector.Collector) error
	RunMode() RunMode
}

// ProbeSchedule is contributed by a Module at registration time.
type ProbeSchedule struct {
	Every time.Duration
	Probe ProbeID
}

// Module groups a stable ModuleID with its probe schedules and a lookup
// from ProbeID back to a live Probe. Lookup may return false during a
// reload, as the probe it names may have disappeared from the rebuilt
// module.
type Module interface {
	ID() ModuleID
	Schedules() []ProbeSchedule
	Probe(id ProbeID) (Probe, bool)
}

// Registry holds every registered module and forwards its schedules to
// the cadence scheduler.
type Registry struct {
	modules map[ModuleID]Module
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{modules: make(map[ModuleID]Module)}
}

// Register adds m and files each of its ProbeSchedules with sched as a
// (every, (ModuleID, ProbeID)) scheduled token.
func (r *Registry) Register(m Module, sched *scheduler.Scheduler) {
	r.modules[m.ID()] = m
	for _, ps := range m.Schedules() {
		sched.Every(ps.Every, scheduler.Token{
			ModuleID: string(m.ID()),
			ProbeID:  string(ps.Probe),
		})
	}
}

// Resolve looks up the Probe a scheduler token refers to. It returns
// false if the module or the probe within it can no longer be found
// (the "gone" case: a reload removed it).
func (r *Registry) Resolve(token scheduler.Token) (Probe, bool) {
	m, ok := r.modules[ModuleID(token.ModuleID)]
	if !ok {
		return nil, false
	}
	return m.Probe(ProbeID(token.ProbeID))
}

// Tokens enumerates the scheduler tokens implied by every registered
// module's schedules, so a caller rebuilding the registry on reload can
// cancel the previous generation's schedules before filing new ones.
func (r *Registry) Tokens() []scheduler.Token {
	var tokens []scheduler.Token
	for _, m := range r.modules {
		for _, ps := range m.Schedules() {
			tokens = append(tokens, scheduler.Token{
				ModuleID: string(m.ID()),
				ProbeID:  string(ps.Probe),
			})
		}
	}
	return tokens
}

// Modules returns every registered module, for status reporting.
func (r *Registry) Modules() []Module {
	out := make([]Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	return out
}
