package dispatcher

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmagro/dms-agent/internal/collector"
	"github.com/dmagro/dms-agent/internal/messaging"
	"github.com/dmagro/dms-agent/internal/registry"
	"github.com/dmagro/dms-agent/internal/scheduler"
)

type stubProbe struct {
	name    string
	emits   []string
	err     error
	panics  bool
	onRun   func()
	calledN int
	mu      sync.Mutex
}

func (p *stubProbe) Run(c *collector.Collector) error {
	p.mu.Lock()
	p.calledN++
	p.mu.Unlock()
	if p.onRun != nil {
		p.onRun()
	}
	if p.panics {
		panic("boom: " + p.name)
	}
	for _, e := range p.emits {
		c.Collect("loc", p.name, "c", messaging.Str(e))
	}
	return p.err
}

func (p *stubProbe) RunMode() registry.RunMode { return registry.SharedThread }

type stubModule struct {
	id        registry.ModuleID
	schedules []registry.ProbeSchedule
	probes    map[registry.ProbeID]registry.Probe
}

func (m *stubModule) ID() registry.ModuleID                { return m.id }
func (m *stubModule) Schedules() []registry.ProbeSchedule   { return m.schedules }
func (m *stubModule) Probe(id registry.ProbeID) (registry.Probe, bool) {
	p, ok := m.probes[id]
	return p, ok
}

func TestDispatcherRunsProbesAndCollectsMeasurements(t *testing.T) {
	log := zerolog.Nop()
	sched := scheduler.New(10*time.Millisecond, log)
	defer sched.Close()

	reg := registry.New()
	probe := &stubProbe{name: "p1", emits: []string{"v1", "v2"}}
	mod := &stubModule{
		id:        "m1",
		schedules: []registry.ProbeSchedule{{Every: 20 * time.Millisecond, Probe: "p1"}},
		probes:    map[registry.ProbeID]registry.Probe{"p1": probe},
	}
	reg.Register(mod, sched)

	ch := collector.NewChannel(10)
	control := make(chan Signal)
	d := New(sched, reg, ch, control, nil, log)

	done := make(chan error, 1)
	go func() { done <- d.Run() }()

	var got []messaging.RawDataPoint
	collectDeadline := time.After(500 * time.Millisecond)
loop:
	for len(got) < 2 {
		select {
		case p := <-ch.Points():
			got = append(got, p)
		case <-collectDeadline:
			break loop
		}
	}

	close(control)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not exit after control channel closed")
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 measurements, got %d: %+v", len(got), got)
	}
	if got[0].Value.Text != "v1" || got[1].Value.Text != "v2" {
		t.Fatalf("unexpected emission order: %+v", got)
	}
}

func TestDispatcherContainsProbePanic(t *testing.T) {
	log := zerolog.Nop()
	sched := scheduler.New(10*time.Millisecond, log)
	defer sched.Close()

	reg := registry.New()
	panicky := &stubProbe{name: "bad", panics: true}
	survivor := &stubProbe{name: "good", emits: []string{"ok"}}
	mod := &stubModule{
		id: "m1",
		schedules: []registry.ProbeSchedule{
			{Every: 15 * time.Millisecond, Probe: "bad"},
			{Every: 15 * time.Millisecond, Probe: "good"},
		},
		probes: map[registry.ProbeID]registry.Probe{"bad": panicky, "good": survivor},
	}
	reg.Register(mod, sched)

	ch := collector.NewChannel(10)
	control := make(chan Signal)
	d := New(sched, reg, ch, control, nil, log)

	done := make(chan error, 1)
	go func() { done <- d.Run() }()

	select {
	case p := <-ch.Points():
		if p.Value.Text != "ok" {
			t.Fatalf("expected surviving probe's emission, got %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("surviving probe's measurement never arrived")
	}

	close(control)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("dispatcher returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not exit")
	}
}

func TestDispatcherCancelsGoneProbes(t *testing.T) {
	log := zerolog.Nop()
	sched := scheduler.New(10*time.Millisecond, log)
	defer sched.Close()

	reg := registry.New()
	mod := &stubModule{
		id:        "m1",
		schedules: []registry.ProbeSchedule{{Every: 15 * time.Millisecond, Probe: "missing"}},
		probes:    map[registry.ProbeID]registry.Probe{}, // probe never resolves
	}
	reg.Register(mod, sched)

	ch := collector.NewChannel(10)
	control := make(chan Signal)
	d := New(sched, reg, ch, control, nil, log)

	done := make(chan error, 1)
	go func() { done <- d.Run() }()

	deadline := time.Now().Add(500 * time.Millisecond)
	for d.GoneCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if d.GoneCount() == 0 {
		t.Fatal("expected at least one gone fire to be counted")
	}

	close(control)
	<-done
}

func TestDispatcherErrorsWhenNoScheduleRegistered(t *testing.T) {
	log := zerolog.Nop()
	sched := scheduler.New(10*time.Millisecond, log)
	defer sched.Close()

	reg := registry.New()
	ch := collector.NewChannel(10)
	control := make(chan Signal)
	d := New(sched, reg, ch, control, nil, log)

	err := d.Run()
	if !errors.Is(err, scheduler.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestDispatcherReloadFailureKeepsPreviousGenerationScheduled(t *testing.T) {
	log := zerolog.Nop()
	sched := scheduler.New(10*time.Millisecond, log)
	defer sched.Close()

	reg := registry.New()
	original := &stubProbe{name: "orig", emits: []string{"orig"}}
	origMod := &stubModule{
		id:        "m1",
		schedules: []registry.ProbeSchedule{{Every: 15 * time.Millisecond, Probe: "orig"}},
		probes:    map[registry.ProbeID]registry.Probe{"orig": original},
	}
	reg.Register(origMod, sched)

	loadErr := errors.New("malformed config")
	loader := func() ([]registry.Module, error) {
		return nil, loadErr
	}

	ch := collector.NewChannel(10)
	control := make(chan Signal)
	d := New(sched, reg, ch, control, loader, log)

	done := make(chan error, 1)
	go func() { done <- d.Run() }()

	control <- Reload

	// The original probe must keep firing after a failed reload: the
	// scheduler was never touched because the loader returned an error
	// before any cancel/swap happened.
	select {
	case p := <-ch.Points():
		if p.Value.Text != "orig" {
			t.Fatalf("expected the original probe's measurement, got %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("original probe stopped firing after a failed reload")
	}

	close(control)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not exit")
	}
}

func TestDispatcherReloadSwapsRegistry(t *testing.T) {
	log := zerolog.Nop()
	sched := scheduler.New(10*time.Millisecond, log)
	defer sched.Close()

	reg := registry.New()
	original := &stubProbe{name: "orig", emits: []string{"orig"}}
	origMod := &stubModule{
		id:        "m1",
		schedules: []registry.ProbeSchedule{{Every: 200 * time.Millisecond, Probe: "orig"}},
		probes:    map[registry.ProbeID]registry.Probe{"orig": original},
	}
	reg.Register(origMod, sched)

	replacement := &stubProbe{name: "new", emits: []string{"new"}}
	loader := func() ([]registry.Module, error) {
		newMod := &stubModule{
			id:        "m1",
			schedules: []registry.ProbeSchedule{{Every: 15 * time.Millisecond, Probe: "new"}},
			probes:    map[registry.ProbeID]registry.Probe{"new": replacement},
		}
		return []registry.Module{newMod}, nil
	}

	ch := collector.NewChannel(10)
	control := make(chan Signal)
	d := New(sched, reg, ch, control, loader, log)

	done := make(chan error, 1)
	go func() { done <- d.Run() }()

	control <- Reload

	select {
	case p := <-ch.Points():
		if p.Value.Text != "new" {
			t.Fatalf("expected measurement from reloaded module, got %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("reloaded probe never ran")
	}

	close(control)
	<-done
}
