// Package dispatcher implements the probe dispatcher. It drives the
// cadence scheduler, resolves scheduled tokens to live probes via the
// module registry, runs each batch on the current goroutine, and routes
// emitted measurements through the collector channel.
package dispatcher

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/dmagro/dms-agent/internal/collector"
	"github.com/dmagro/dms-agent/internal/registry"
	"github.com/dmagro/dms-agent/internal/scheduler"
)

// Signal is a control event the supervisor forwards to the dispatcher.
type Signal int

const (
	Shutdown Signal = iota
	Reload
)

// ModuleLoader rebuilds the set of live modules on a Reload signal.
type ModuleLoader func() ([]registry.Module, error)

// Dispatcher owns the scheduler and the module registry exclusively; no
// other goroutine touches either while the dispatcher runs.
type Dispatcher struct {
	sched     *scheduler.Scheduler
	reg       *registry.Registry
	channel   *collector.Channel
	control   <-chan Signal
	loader    ModuleLoader
	log       zerolog.Logger
	onBatch   func(d time.Duration, kind scheduler.Kind)
	goneCount uint64
	readyFire uint64
	overrun   uint64
}

// New constructs a Dispatcher. reg must already have every startup
// module registered with sched. loader may be nil, in which case Reload
// signals are logged and ignored.
func New(sched *scheduler.Scheduler, reg *registry.Registry, channel *collector.Channel, control <-chan Signal, loader ModuleLoader, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sched:   sched,
		reg:     reg,
		channel: channel,
		control: control,
		loader:  loader,
		log:     log,
	}
}

// OnBatch installs a callback invoked after every executed batch with its
// wall-clock duration and fire kind. Used by the status reporter (see
// internal/stats) to track run-latency percentiles; nil by default.
func (d *Dispatcher) OnBatch(fn func(duration time.Duration, kind scheduler.Kind)) {
	d.onBatch = fn
}

// GoneCount returns the number of scheduled fires whose token no longer
// resolved to a probe.
func (d *Dispatcher) GoneCount() uint64 { return d.goneCount }

// ReadyFireCount returns the number of on-time fires dispatched.
func (d *Dispatcher) ReadyFireCount() uint64 { return d.readyFire }

// OverrunFireCount returns the number of late fires dispatched.
func (d *Dispatcher) OverrunFireCount() uint64 { return d.overrun }

// Run executes the main dispatch loop until a Shutdown signal arrives or
// the control channel closes. It returns the scheduler's ErrEmpty if no
// schedule is ever registered, which indicates a programming error.
func (d *Dispatcher) Run() error {
	for {
		decision, err := d.sched.Next()
		if err != nil {
			return err
		}

		switch decision.Kind {
		case scheduler.KindWait:
			select {
			case <-decision.Alarm.Ready():
			case sig, ok := <-d.control:
				if !ok || sig == Shutdown {
					return nil
				}
				if sig == Reload {
					d.reload()
				}
			}
		case scheduler.KindReady, scheduler.KindOverrun:
			d.runBatch(decision)
		}
	}
}

func (d *Dispatcher) runBatch(decision scheduler.Decision) {
	start := time.Now()
	batchCollector := d.channel.NewCollector(start)

	for _, token := range decision.Tokens {
		probe, ok := d.reg.Resolve(token)
		if !ok {
			d.goneCount++
			d.sched.Cancel(token)
			d.log.Warn().Str("module", token.ModuleID).Str("probe", token.ProbeID).Msg("scheduled probe no longer resolves; cancelling")
			continue
		}

		if decision.Kind == scheduler.KindOverrun {
			d.overrun++
		} else {
			d.readyFire++
		}

		d.runProbe(token, probe, batchCollector)
	}

	if d.onBatch != nil {
		d.onBatch(time.Since(start), decision.Kind)
	}
}

// runProbe invokes a single probe with a panic boundary: a panicking
// probe is contained and logged, never taking down the dispatcher.
func (d *Dispatcher) runProbe(token scheduler.Token, p registry.Probe, c *collector.Collector) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("module", token.ModuleID).
				Str("probe", token.ProbeID).
				Interface("panic", r).
				Msg("probe panicked; contained")
		}
	}()

	if err := p.Run(c); err != nil {
		d.log.Warn().
			Str("module", token.ModuleID).
			Str("probe", token.ProbeID).
			Err(err).
			Msg("probe returned an error")
	}
}

// reload rebuilds the registry from d.loader. The new module set is
// loaded first; only once that succeeds are the previous generation's
// schedules cancelled and the new ones filed, so a failing reload
// (a malformed config file, say) leaves the current schedules running
// untouched. The scheduler is never called from another goroutine
// during this, so it is implicitly "paused" for the duration: no
// probes run until rebuild completes.
func (d *Dispatcher) reload() {
	if d.loader == nil {
		d.log.Warn().Msg("reload requested but no module loader configured")
		return
	}

	modules, err := d.loader()
	if err != nil {
		d.log.Error().Err(err).Msg("reload failed; keeping previous module set scheduled")
		return
	}

	for _, token := range d.reg.Tokens() {
		d.sched.Cancel(token)
	}

	fresh := registry.New()
	for _, m := range modules {
		fresh.Register(m, d.sched)
	}
	d.reg = fresh
	d.log.Info().Int("modules", len(modules)).Msg("registry reloaded")
}
