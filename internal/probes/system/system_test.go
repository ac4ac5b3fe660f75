package system

import (
	"testing"
	"time"

	"github.com/dmagro/dms-agent/internal/collector"
	"github.com/dmagro/dms-agent/internal/messaging"
)

func TestGoroutinesProbeEmitsAnInteger(t *testing.T) {
	mod := New(time.Second, time.Second)
	probe, ok := mod.Probe(GoroutinesProbeID)
	if !ok {
		t.Fatal("expected goroutines probe to resolve")
	}

	ch := collector.NewChannel(1)
	c := ch.NewCollector(time.Now())
	if err := probe.Run(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	point := <-ch.Points()
	if point.Value.Kind != messaging.ValueInteger {
		t.Fatalf("expected integer value, got kind %v", point.Value.Kind)
	}
	if point.Value.Integer < 1 {
		t.Fatalf("expected at least one live goroutine, got %d", point.Value.Integer)
	}
}

func TestCPULoadProbeEmitsAFloat(t *testing.T) {
	mod := New(time.Second, time.Second)
	probe, ok := mod.Probe(CPULoadProbeID)
	if !ok {
		t.Fatal("expected cpu_load probe to resolve")
	}

	ch := collector.NewChannel(1)
	c := ch.NewCollector(time.Now())
	if err := probe.Run(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	point := <-ch.Points()
	if point.Value.Kind != messaging.ValueFloat {
		t.Fatalf("expected float value, got kind %v", point.Value.Kind)
	}
	if point.Value.Float < 0 {
		t.Fatalf("expected a non-negative load value, got %f", point.Value.Float)
	}
}

func TestFallbackLoadEstimateIsNonNegative(t *testing.T) {
	if v := fallbackLoadEstimate(); v < 0 {
		t.Fatalf("expected non-negative fallback estimate, got %f", v)
	}
}
