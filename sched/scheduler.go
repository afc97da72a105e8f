// Package sched sends timed events just ahead of their due time.
//
// A Scheduler pulls events one at a time from a Next function and keeps at
// most one timer armed. Events due within the latency window are sent right
// away; events already late are dropped.
package sched

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chabad360/go-scsynth/osc"
)

// DefaultLatency is how far ahead of its due time an event is sent.
const DefaultLatency = 50 * time.Millisecond

// ErrMissingEpoch is returned when a loop is scheduled without an epoch.
var ErrMissingEpoch = errors.New("missing epoch")

// Sender delivers the packets of one event. offset is the event's time in
// seconds since the epoch.
type Sender func(offset float64, packets []osc.Packet) error

// Scheduler drives one event sequence at a time.
type Scheduler struct {
	send    Sender
	clock   clock.Clock
	latency time.Duration
	log     *zap.Logger

	mu    sync.Mutex
	next  Next
	epoch time.Time
	timer *clock.Timer
	// gen is bumped whenever the loop is replaced or stopped. Work started
	// for an older generation is discarded.
	gen uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used for the current time and timers.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLatency sets the look-ahead window.
func WithLatency(d time.Duration) Option {
	return func(s *Scheduler) { s.latency = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New returns an idle Scheduler that delivers events through send.
func New(send Sender, opts ...Option) *Scheduler {
	s := &Scheduler{
		send:    send,
		clock:   clock.New(),
		latency: DefaultLatency,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ScheduleLoop replaces the current sequence with next, timed from epoch,
// and sends or arms its first event before returning.
func (s *Scheduler) ScheduleLoop(next Next, epoch time.Time) error {
	if epoch.IsZero() {
		return errors.Wrap(ErrMissingEpoch, "schedule loop")
	}

	s.mu.Lock()
	s.stopTimer()
	s.gen++
	gen := s.gen
	s.next = next
	s.epoch = epoch
	s.mu.Unlock()

	s.log.Debug("schedule loop", zap.Time("epoch", epoch), zap.Uint64("gen", gen))
	s.run(gen, nil, 0, false)
	return nil
}

// Reschedule replaces the current sequence with next, keeping the epoch.
func (s *Scheduler) Reschedule(next Next) error {
	return s.ScheduleLoop(next, s.Epoch())
}

// Stop cancels the armed timer, if any. A send that is already under way
// still completes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimer()
	s.gen++
}

// Epoch returns the epoch of the current sequence.
func (s *Scheduler) Epoch() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Armed reports whether a timer is pending.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) now() float64 {
	return s.clock.Now().Sub(s.epoch).Seconds()
}

// run pulls events until one has to wait for a timer or the sequence ends.
// Logical time advances to each event's own time, so a run of due events is
// not measured against a stale reference.
func (s *Scheduler) run(gen uint64, memo *Memo, logical float64, haveLogical bool) {
	for {
		ev, next, due, ok := s.step(gen, memo, logical, haveLogical)
		if !ok {
			return
		}
		if due {
			s.deliver(ev)
		}
		memo, logical, haveLogical = next, ev.Time, true
	}
}

// step pulls one event. It arms a timer and returns ok == false when the
// event is not due yet. due is false for events that are already late.
func (s *Scheduler) step(gen uint64, memo *Memo, logical float64, haveLogical bool) (ev Event, next *Memo, due, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return Event{}, nil, false, false
	}

	now := s.now()
	if !haveLogical {
		logical = now
	}

	ev, next, ok = s.next(logical, memo)
	if !ok {
		s.log.Debug("sequence exhausted", zap.Float64("now", now))
		return Event{}, nil, false, false
	}

	delta := ev.Time - now
	lat := s.latency.Seconds()
	if delta > lat {
		wait := time.Duration((delta - lat) * float64(time.Second))
		s.log.Debug("arm timer", zap.Float64("time", ev.Time), zap.Duration("wait", wait))
		pending, cont := ev, next
		s.timer = s.clock.AfterFunc(wait, func() { s.fire(gen, pending, cont) })
		return Event{}, nil, false, false
	}

	if delta <= 0 {
		s.log.Warn("dropping late event",
			zap.Float64("time", ev.Time),
			zap.Float64("late", -delta),
			zap.Int("packets", len(ev.Packets)))
		return ev, next, false, true
	}
	return ev, next, true, true
}

func (s *Scheduler) fire(gen uint64, ev Event, memo *Memo) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.deliver(ev)
	s.run(gen, memo, ev.Time, true)
}

func (s *Scheduler) deliver(ev Event) {
	if err := s.send(ev.Time, ev.Packets); err != nil {
		s.log.Error("send event", zap.Float64("time", ev.Time), zap.Error(err))
	}
}
