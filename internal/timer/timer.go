// Package timer implements the cooperative scheduler's one-shot alarm
// primitive: a long-lived worker goroutine that sleeps on behalf of
// callers and signals a channel when the requested delay has elapsed.
package timer

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// request is sent from a caller of AlarmIn to the worker goroutine.
type request struct {
	sink     chan<- struct{}
	duration time.Duration
}

// AlarmHandle becomes ready exactly once, at least the requested duration
// after it was created. Reading from Ready after it has already fired is
// safe and returns immediately (closed channel semantics).
type AlarmHandle struct {
	ready chan struct{}
}

// Ready returns the channel that closes when the alarm fires.
func (h AlarmHandle) Ready() <-chan struct{} {
	return h.ready
}

// Timer owns the background worker that services alarm requests. Timer
// is safe for concurrent use by multiple goroutines requesting alarms,
// though the scheduler (the only intended caller) uses it from a single
// goroutine.
type Timer struct {
	requests chan request
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	log      zerolog.Logger
}

// Spawn starts the worker goroutine and returns a Timer bound to it. The
// worker exits when Stop is called; alarms still pending at that point
// never fire, and no new request is accepted afterward.
func Spawn(log zerolog.Logger) *Timer {
	t := &Timer{
		requests: make(chan request),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		log:      log,
	}
	go t.run()
	return t
}

func (t *Timer) run() {
	defer close(t.done)
	for {
		select {
		case req := <-t.requests:
			// One-shot: each request gets its own short-lived timer so
			// slow sleeps don't block unrelated alarm requests from being
			// accepted. This keeps AlarmIn callers from ever blocking on
			// a worker that's deep in someone else's sleep.
			go func(req request) {
				timer := time.NewTimer(req.duration)
				defer timer.Stop()
				select {
				case <-timer.C:
					close(req.sink)
				case <-t.stop:
				}
			}(req)
		case <-t.stop:
			return
		}
	}
}

// AlarmIn requests a one-shot alarm at least d after the call returns.
// Dropping the returned handle (never reading Ready) leaks nothing: the
// backing goroutine still exits once its sleep elapses or the Timer is
// stopped.
func (t *Timer) AlarmIn(d time.Duration) AlarmHandle {
	ready := make(chan struct{})
	select {
	case t.requests <- request{sink: ready, duration: d}:
	case <-t.stop:
		// Timer already stopped: return a handle that will never fire,
		// mirroring "timer died" in the reference implementation.
	}
	return AlarmHandle{ready: ready}
}

// Stop shuts down the worker. It is idempotent and safe to call more than
// once; subsequent AlarmIn calls return handles that never become ready.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
	<-t.done
}
