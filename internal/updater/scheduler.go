package updater

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// DefaultStaticInterval is T_static's default.
const DefaultStaticInterval = 5

// DefaultReinitRate makes reinit run roughly once a minute at the default
// static interval (60s / 5s per update), large enough that topology is
// re-read roughly once per minute.
const DefaultReinitRate = MaxInterval / DefaultStaticInterval

// Updater is one cooperative scheduler task: a stateful object owning a
// private cache.
type Updater interface {
	// Name identifies the updater in logs.
	Name() string
	// Reinit rebuilds the sub_id index and any derived maps. Must be
	// idempotent; called once before the first Update and periodically
	// thereafter.
	Reinit(ctx context.Context) error
	// Update refreshes the published snapshot from the backend. Must
	// publish atomically (see Snapshot[T]) so concurrent readers never
	// observe a torn state.
	Update(ctx context.Context) error
	// Close releases DB connections and pub/sub subscriptions.
	Close() error
}

// Config tunes one registered updater's cadence.
type Config struct {
	Updater        Updater
	StaticInterval int // seconds; 0 means DefaultStaticInterval
	ReinitRate     int // updates between reinits; 0 means DefaultReinitRate

	// DynamicPacing enables NextInterval's adaptive formula; when false
	// the task always re-paces at StaticInterval. Off by default, toggled
	// on by the daemon's -r/--enable_dynamic_frequency flag.
	DynamicPacing bool
}

type taskState struct {
	cfg        Config
	nextDue    time.Time
	iterations int
}

// Scheduler runs every registered Updater cooperatively on one goroutine:
// at most one Update or Reinit call is in flight at any time, matching
// single-threaded cooperative model. now is overridable for
// deterministic tests.
type Scheduler struct {
	tasks []*taskState
	now   func() time.Time
	sleep func(context.Context, time.Duration) bool // true if woke normally, false if ctx done
}

// NewScheduler builds a Scheduler over cfgs, filling in interval/reinit
// defaults.
func NewScheduler(cfgs []Config) *Scheduler {
	s := &Scheduler{
		now: time.Now,
	}
	s.sleep = s.defaultSleep
	for _, c := range cfgs {
		if c.StaticInterval <= 0 {
			c.StaticInterval = DefaultStaticInterval
		}
		if c.ReinitRate <= 0 {
			c.ReinitRate = DefaultReinitRate
		}
		s.tasks = append(s.tasks, &taskState{cfg: c})
	}
	return s
}

func (s *Scheduler) defaultSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run drives the scheduler until ctx is canceled. Every registered
// updater is Reinit'd once before its first Update. On cancellation, Run
// closes every updater (releasing connections/subscriptions) before
// returning.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.closeAll()

	if len(s.tasks) == 0 {
		<-ctx.Done()
		return nil
	}

	now := s.now()
	for _, ts := range s.tasks {
		if err := ts.cfg.Updater.Reinit(ctx); err != nil {
			return errors.Wrapf(err, "updater %s: initial reinit", ts.cfg.Updater.Name())
		}
		ts.nextDue = now
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		next := s.earliest()
		wait := next.nextDue.Sub(s.now())
		if !s.sleep(ctx, wait) {
			return nil
		}
		if err := s.runOne(ctx, next); err != nil {
			return err
		}
	}
}

func (s *Scheduler) earliest() *taskState {
	best := s.tasks[0]
	for _, ts := range s.tasks[1:] {
		if ts.nextDue.Before(best.nextDue) {
			best = ts
		}
	}
	return best
}

func (s *Scheduler) runOne(ctx context.Context, ts *taskState) error {
	if ts.iterations > 0 && ts.iterations%ts.cfg.ReinitRate == 0 {
		if err := ts.cfg.Updater.Reinit(ctx); err != nil {
			return errors.Wrapf(err, "updater %s: periodic reinit", ts.cfg.Updater.Name())
		}
	}

	t0 := s.now()
	err := ts.cfg.Updater.Update(ctx)
	delta := s.now().Sub(t0).Seconds()
	if err != nil {
		// A failed update still re-paces at its static interval; the
		// error is the updater's own to log and recover from next cycle,
		// it never propagates out and stalls the rest of the schedule.
		delta = 0
	}

	next := ts.cfg.StaticInterval
	if ts.cfg.DynamicPacing {
		next = NextInterval(delta, ts.cfg.StaticInterval)
	}
	ts.nextDue = s.now().Add(time.Duration(next) * time.Second)
	ts.iterations++
	return nil
}

func (s *Scheduler) closeAll() {
	for _, ts := range s.tasks {
		_ = ts.cfg.Updater.Close()
	}
}
