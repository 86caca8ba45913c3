package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const DefaultPollInterval = 100 * time.Millisecond

// Options configures a Scheduler and the runners it starts.
type Options struct {
	// Jobs is the number of concurrency slots. Zero means one per CPU.
	Jobs int
	// PollInterval is the longest the drain loop sleeps between passes.
	PollInterval time.Duration
	// Abandon leaves still-running jobs alive when a job fails instead
	// of killing them.
	Abandon bool
	// Dir is the working directory of every command.
	Dir      string
	Env      *Environ
	Logger   *slog.Logger
	Reporter Reporter
}

// Scheduler runs events in batches, at most Jobs at a time. Outside
// concurrent mode every added event is a batch of one. All state is
// owned by the goroutine calling Add and Drain.
type Scheduler struct {
	total   int
	slots   *semaphore.Weighted
	ready   []*Event
	running []*Event
	peak    int

	concurrent      bool
	firstConcurrent bool

	wake         chan struct{}
	pollInterval time.Duration
	abandon      bool
	dir          string
	env          *Environ
	log          *slog.Logger
	report       Reporter
}

func NewScheduler(opts Options) *Scheduler {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Env == nil {
		opts.Env = OSEnviron()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Reporter == nil {
		opts.Reporter = NewTerminal(io.Discard, false)
	}

	return &Scheduler{
		total:        opts.Jobs,
		slots:        semaphore.NewWeighted(int64(opts.Jobs)),
		wake:         make(chan struct{}, 1),
		pollInterval: opts.PollInterval,
		abandon:      opts.Abandon,
		dir:          opts.Dir,
		env:          opts.Env,
		log:          opts.Logger,
		report:       opts.Reporter,
	}
}

func (s *Scheduler) Env() *Environ {
	return s.env
}

// Slots is the total number of concurrency slots.
func (s *Scheduler) Slots() int {
	return s.total
}

// FreeSlots is Slots minus the number of running events.
func (s *Scheduler) FreeSlots() int {
	return s.total - len(s.running)
}

func (s *Scheduler) Running() int {
	return len(s.running)
}

func (s *Scheduler) Pending() int {
	return len(s.ready)
}

// Peak is the highest number of simultaneously running events seen
// since the scheduler was created.
func (s *Scheduler) Peak() int {
	return s.peak
}

func (s *Scheduler) Concurrent() bool {
	return s.concurrent
}

// Add registers ev. Outside concurrent mode the event is drained
// immediately and Add returns once it has finished.
func (s *Scheduler) Add(ctx context.Context, ev *Event) error {
	if ev.state != StateReady || ev.sched != nil {
		return fmt.Errorf("event %q was already scheduled", ev.Result)
	}
	ev.sched = s
	s.ready = append(s.ready, ev)

	if !s.concurrent {
		return s.Drain(ctx)
	}
	return nil
}

// ConcurrentStart buffers subsequently added events until
// ConcurrentEnd.
func (s *Scheduler) ConcurrentStart() {
	s.concurrent = true
	s.firstConcurrent = true
}

// ConcurrentEnd drains the buffered events and leaves concurrent mode.
func (s *Scheduler) ConcurrentEnd(ctx context.Context) error {
	return s.Drain(ctx)
}

// Drain runs every ready event to completion. The first failure stops
// admission, terminates the running events unless Abandon is set, and
// is returned.
func (s *Scheduler) Drain(ctx context.Context) error {
	defer s.reset()

	log := s.log.With("batch", uuid.NewString())
	log.Debug("draining batch", "events", len(s.ready), "slots", s.total, "concurrent", s.concurrent)
	start := time.Now()

	timer := time.NewTimer(s.pollInterval)
	defer timer.Stop()

	for len(s.ready) > 0 || len(s.running) > 0 {
		if ctx.Err() != nil {
			s.abort(log)
			return RaiseException(INTERRUPTED, "")
		}

		// Retire finished events.
		for i := 0; i < len(s.running); {
			ev := s.running[i]
			if !ev.IsDone() {
				i++
				continue
			}
			err := ev.Finish()
			s.running = slices.Delete(s.running, i, i+1)
			s.slots.Release(1)
			if err != nil {
				log.Error("event failed", "result", ev.Result, "error", err)
				s.abort(log)
				return err
			}
		}

		// Admit ready events, most recently added first.
		for len(s.ready) > 0 && s.slots.TryAcquire(1) {
			ev := s.ready[len(s.ready)-1]
			s.ready = s.ready[:len(s.ready)-1]

			started, err := ev.Run()
			if err != nil {
				s.slots.Release(1)
				log.Error("event setup failed", "result", ev.Result, "error", err)
				s.abort(log)
				return err
			}
			if !started {
				s.slots.Release(1)
				continue
			}
			s.running = append(s.running, ev)
			s.peak = max(s.peak, len(s.running))
		}

		if len(s.running) == 0 {
			continue
		}

		// Sleep until a runner exits or the poll interval elapses.
		timer.Reset(s.pollInterval)
		select {
		case <-s.wake:
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	log.Debug("batch drained", "elapsed", time.Since(start))
	return nil
}

// wakeUp is called by runners when their process exits.
func (s *Scheduler) wakeUp() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// abort drops the ready queue and deals with the running set.
func (s *Scheduler) abort(log *slog.Logger) {
	s.ready = nil
	if len(s.running) == 0 {
		return
	}
	if s.abandon {
		log.Warn("abandoning running events", "count", len(s.running))
		return
	}

	var g errgroup.Group
	for _, ev := range s.running {
		g.Go(ev.runner.Kill)
	}
	if err := g.Wait(); err != nil {
		log.Error("terminating running events", "error", err)
	}
	log.Debug("terminated running events", "count", len(s.running))
}

func (s *Scheduler) reset() {
	s.slots = semaphore.NewWeighted(int64(s.total))
	s.ready = nil
	s.running = nil
	s.concurrent = false
	s.firstConcurrent = false
}
