// Package scheduler implements the cadence scheduler: it interleaves many
// periodic schedules on a single caller's thread, groups near-coincident
// fires into quantized time buckets, and classifies each wake-up as
// ready, overrun, or a request to wait.
//
// The scheduler is exclusively owned by its caller (the probe dispatcher):
// it is not safe for concurrent use from more than one goroutine.
package scheduler

import (
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmagro/dms-agent/internal/timer"
)

// DefaultBucketWidth is the construction-time default bucket width W.
const DefaultBucketWidth = 100 * time.Millisecond

// ErrEmpty is returned by Next when no schedules are registered.
var ErrEmpty = errors.New("scheduler: no schedules registered")

// Token is the opaque handle a caller registers a cadence against. The
// scheduler never interprets its fields; it only compares them for
// equality (used by Cancel).
type Token struct {
	ModuleID string
	ProbeID  string
}

// Kind classifies a Decision returned by Next.
type Kind int

const (
	// KindWait means the earliest non-empty bucket is strictly in the
	// future; the caller should block on Alarm.
	KindWait Kind = iota
	// KindReady means the earliest non-empty bucket is the current
	// bucket; Tokens holds the batch that fired on time.
	KindReady
	// KindOverrun means the earliest non-empty bucket is strictly in
	// the past; Tokens holds the batch that fired late.
	KindOverrun
)

// Decision is the result of a single Next call.
type Decision struct {
	Kind   Kind
	Alarm  timer.AlarmHandle // set only when Kind == KindWait
	Tokens []Token           // set only when Kind == KindReady or KindOverrun
}

type entry struct {
	nextFire time.Time
	token    Token
	every    time.Duration
}

// Scheduler holds the set of (interval, token) schedules and decides,
// bucket by bucket, what should run next.
type Scheduler struct {
	t0           time.Time
	bucketWidth  time.Duration
	buckets      map[int64][]entry
	timer        *timer.Timer
	overrunCount uint64
	log          zerolog.Logger
}

// New constructs a Scheduler with reference offset T0 = now and the given
// bucket width. bucketWidth must be <= any schedule's every; callers that
// violate this get buckets wider than some of their own cadences, which
// defeats batching but is not otherwise unsafe.
func New(bucketWidth time.Duration, log zerolog.Logger) *Scheduler {
	if bucketWidth <= 0 {
		bucketWidth = DefaultBucketWidth
	}
	return &Scheduler{
		t0:          time.Now(),
		bucketWidth: bucketWidth,
		buckets:     make(map[int64][]entry),
		timer:       timer.Spawn(log),
		log:         log,
	}
}

// Close stops the scheduler's backing timer worker. Call once the
// scheduler is no longer in use.
func (s *Scheduler) Close() {
	s.timer.Stop()
}

// bucketIndex computes b(t) = ceil((t - T0) / W).
func (s *Scheduler) bucketIndex(t time.Time) int64 {
	d := t.Sub(s.t0)
	if d <= 0 {
		return 0
	}
	q := int64(d / s.bucketWidth)
	if d%s.bucketWidth != 0 {
		q++
	}
	return q
}

// bucketLowerEdge returns the instant at which "now" first enters bucket
// b, i.e. the exclusive lower bound of bucket b's window.
func (s *Scheduler) bucketLowerEdge(b int64) time.Time {
	return s.t0.Add(time.Duration(b-1) * s.bucketWidth)
}

func (s *Scheduler) file(fire time.Time, token Token, every time.Duration) {
	b := s.bucketIndex(fire)
	s.buckets[b] = append(s.buckets[b], entry{nextFire: fire, token: token, every: every})
}

// Every registers a perpetual schedule. Its initial next-fire is computed
// by advancing from T0 in steps of every until the result lands strictly
// beyond the current bucket.
func (s *Scheduler) Every(every time.Duration, token Token) {
	current := s.bucketIndex(time.Now())
	fire := s.t0
	for {
		fire = fire.Add(every)
		if s.bucketIndex(fire) > current {
			break
		}
	}
	s.file(fire, token, every)
}

// Cancel removes every occurrence of token from every bucket.
func (s *Scheduler) Cancel(token Token) {
	for b, entries := range s.buckets {
		kept := entries[:0]
		for _, e := range entries {
			if e.token != token {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(s.buckets, b)
		} else {
			s.buckets[b] = kept
		}
	}
}

// OverrunCount returns the monotonic count of overrun fires observed so
// far.
func (s *Scheduler) OverrunCount() uint64 {
	return s.overrunCount
}

func (s *Scheduler) earliestBucket() (int64, bool) {
	first := true
	var earliest int64
	for b := range s.buckets {
		if first || b < earliest {
			earliest = b
			first = false
		}
	}
	return earliest, !first
}

// Next returns the next decision: Wait if the earliest schedule is still
// in the future, Ready if it is due now, Overrun if it is already late,
// or ErrEmpty if nothing is registered.
func (s *Scheduler) Next() (Decision, error) {
	earliest, ok := s.earliestBucket()
	if !ok {
		return Decision{}, ErrEmpty
	}

	current := s.bucketIndex(time.Now())

	if earliest > current {
		remaining := s.bucketLowerEdge(earliest).Sub(time.Now())
		if remaining < 0 {
			remaining = 0
		}
		return Decision{Kind: KindWait, Alarm: s.timer.AlarmIn(remaining)}, nil
	}

	entries := s.buckets[earliest]
	delete(s.buckets, earliest)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].nextFire.Before(entries[j].nextFire)
	})

	tokens := make([]Token, len(entries))
	for i, e := range entries {
		tokens[i] = e.token
		s.file(e.nextFire.Add(e.every), e.token, e.every)
	}

	if earliest < current {
		s.overrunCount += uint64(len(entries))
		return Decision{Kind: KindOverrun, Tokens: tokens}, nil
	}
	return Decision{Kind: KindReady, Tokens: tokens}, nil
}
