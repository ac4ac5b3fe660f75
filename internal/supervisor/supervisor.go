// Package supervisor translates OS signals into the dispatcher's
// typed control stream, owns the sender transport, and runs the
// dispatcher and the signal-forwarding loop under one managed
// golang.org/x/sync/errgroup, followed by the ordered shutdown of the
// dispatcher, the sender drainer and the scheduler's timer.
package supervisor

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dmagro/dms-agent/internal/collector"
	"github.com/dmagro/dms-agent/internal/dispatcher"
	"github.com/dmagro/dms-agent/internal/registry"
	"github.com/dmagro/dms-agent/internal/scheduler"
	"github.com/dmagro/dms-agent/internal/sender"
	"github.com/dmagro/dms-agent/internal/stats"
)

// Config carries everything the supervisor needs to start the agent.
type Config struct {
	ProcessorURL string
	BucketWidth  time.Duration
	Modules      []registry.Module
	Loader       dispatcher.ModuleLoader
	Log          zerolog.Logger
}

// Supervisor is the top-level orchestrator: the main goroutine that
// installs signal handling, owns the sender, and joins the
// dispatcher and sender in order on shutdown.
type Supervisor struct {
	sched      *scheduler.Scheduler
	reg        *registry.Registry
	channel    *collector.Channel
	control    chan dispatcher.Signal
	dispatcher *dispatcher.Dispatcher
	sender     *sender.Sender
	recorder   *stats.BatchRecorder
	log        zerolog.Logger
}

// New wires the scheduler, registry, collector channel, sender, and
// dispatcher together, but does not start anything. Sender
// construction happens here since a failed dial is fatal at startup:
// connection errors are not retried in the core.
func New(cfg Config) (*Supervisor, error) {
	sched := scheduler.New(cfg.BucketWidth, cfg.Log)
	reg := registry.New()
	for _, m := range cfg.Modules {
		reg.Register(m, sched)
	}

	channel := collector.NewChannel(collector.DefaultCapacity)

	snd, err := sender.Dial(cfg.ProcessorURL, channel, cfg.Log.With().Str("subsystem", "sender").Logger())
	if err != nil {
		sched.Close()
		return nil, err
	}

	control := make(chan dispatcher.Signal)
	recorder := stats.NewBatchRecorder(stats.DefaultBatchSampleCap)
	d := dispatcher.New(sched, reg, channel, control, cfg.Loader, cfg.Log.With().Str("subsystem", "dispatcher").Logger())
	d.OnBatch(recorder.Record)

	s := &Supervisor{
		sched:      sched,
		reg:        reg,
		channel:    channel,
		control:    control,
		dispatcher: d,
		sender:     snd,
		recorder:   recorder,
		log:        cfg.Log,
	}
	return s, nil
}

// Recorder exposes the batch latency recorder for the status table.
func (s *Supervisor) Recorder() *stats.BatchRecorder { return s.recorder }

// Registry exposes the live module registry for the status table.
func (s *Supervisor) Registry() *registry.Registry { return s.reg }

// GoneCount returns the dispatcher's count of fires whose token no
// longer resolved to a live probe.
func (s *Supervisor) GoneCount() uint64 { return s.dispatcher.GoneCount() }

// Run installs SIGINT/SIGTERM (Shutdown) and SIGHUP (Reload) handlers,
// runs the dispatcher and the signal-forwarding loop under an
// errgroup, and on Shutdown performs the ordered teardown: close the
// control channel so the dispatcher exits and joins, close the
// collector channel so the sender drainer observes EOF and joins,
// then stop the sender's socket. If the dispatcher exits with an
// error, the signal loop stops as well, the same teardown runs, and
// Run returns that error.
func (s *Supervisor) Run() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	group, ctx := errgroup.WithContext(context.Background())

	group.Go(func() error {
		return s.dispatcher.Run()
	})

	group.Go(func() error {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					select {
					case s.control <- dispatcher.Reload:
					case <-ctx.Done():
						return nil
					}
				default:
					close(s.control)
					return nil
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	err := group.Wait()

	s.channel.Close()
	s.sender.Join()
	s.sender.Stop()
	s.sched.Close()

	return err
}
