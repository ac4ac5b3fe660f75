package stats

import (
	"sync"
	"time"

	"github.com/dmagro/dms-agent/internal/scheduler"
)

// DefaultBatchSampleCap bounds how many recent batch durations
// BatchRecorder retains; older samples are evicted FIFO once full, so
// percentiles reflect recent behavior rather than growing without
// bound over a long-running agent's lifetime.
const DefaultBatchSampleCap = 500

// BatchRecorder accumulates probe-batch run durations reported by the
// dispatcher's OnBatch hook and exposes them as tail-latency
// percentiles for the status table. Safe for concurrent use: the
// dispatcher goroutine records while the status table goroutine
// reads.
type BatchRecorder struct {
	mu      sync.Mutex
	samples []time.Duration
	cap     int
	ready   uint64
	overrun uint64
}

// NewBatchRecorder constructs a BatchRecorder retaining at most
// sampleCap durations (DefaultBatchSampleCap if sampleCap <= 0).
func NewBatchRecorder(sampleCap int) *BatchRecorder {
	if sampleCap <= 0 {
		sampleCap = DefaultBatchSampleCap
	}
	return &BatchRecorder{cap: sampleCap}
}

// Record is the function passed to Dispatcher.OnBatch.
func (r *BatchRecorder) Record(d time.Duration, kind scheduler.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = append(r.samples, d)
	if len(r.samples) > r.cap {
		r.samples = r.samples[len(r.samples)-r.cap:]
	}

	switch kind {
	case scheduler.KindOverrun:
		r.overrun++
	default:
		r.ready++
	}
}

// Latency returns the current tail-latency percentiles over retained
// batch durations.
func (r *BatchRecorder) Latency() TailLatency {
	r.mu.Lock()
	defer r.mu.Unlock()
	return CalculateTailLatency(r.samples)
}

// Counts returns the number of on-time and overrun batches recorded.
func (r *BatchRecorder) Counts() (ready, overrun uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready, r.overrun
}
