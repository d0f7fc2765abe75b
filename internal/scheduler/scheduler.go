package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fx-rate-alerts/internal/domain"
)

// Event announces one due tick of a named schedule.
type Event struct {
	Name string
	Due  time.Time
}

type scheduleKind int

const (
	kindEvery scheduleKind = iota
	kindDailyAt
	kindWeeklyAt
)

// Schedule describes when a named tick fires.
type Schedule struct {
	kind     scheduleKind
	interval time.Duration
	at       domain.ClockTime
	day      time.Weekday
}

// Every fires at a fixed interval.
func Every(interval time.Duration) Schedule {
	if interval <= 0 {
		panic("schedule interval must be positive")
	}
	return Schedule{kind: kindEvery, interval: interval}
}

// DailyAt fires once per day at the given wall-clock time.
func DailyAt(at domain.ClockTime) Schedule {
	return Schedule{kind: kindDailyAt, at: at}
}

// WeeklyAt fires once per week on the given weekday and wall-clock time.
func WeeklyAt(day time.Weekday, at domain.ClockTime) Schedule {
	return Schedule{kind: kindWeeklyAt, at: at, day: day}
}

// next returns the first fire time strictly after now.
func (s Schedule) next(now time.Time) time.Time {
	switch s.kind {
	case kindDailyAt:
		candidate := s.at.At(now)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate
	case kindWeeklyAt:
		candidate := s.at.At(now)
		daysAhead := (int(s.day) - int(candidate.Weekday()) + 7) % 7
		candidate = candidate.AddDate(0, 0, daysAhead)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 7)
		}
		return candidate
	default:
		return now.Add(s.interval)
	}
}

// Options tune scheduler behaviour.
type Options struct {
	StartupDelay time.Duration
}

// Scheduler owns the named periodic wake-ups. Due events are pushed into an
// unbuffered channel read by a single consumer; an event that finds the
// consumer still busy is dropped, so a slow tick skips the next round
// instead of queueing a backlog.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger

	mu        sync.Mutex
	schedules map[string]Schedule
	nexts     map[string]time.Time

	changed chan struct{}
	ticks   chan Event
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		opts:      opts,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		schedules: make(map[string]Schedule),
		nexts:     make(map[string]time.Time),
		changed:   make(chan struct{}, 1),
		ticks:     make(chan Event),
	}
}

// Ticks exposes the due-event stream consumed by the coordinator.
func (s *Scheduler) Ticks() <-chan Event {
	return s.ticks
}

// Register installs the named schedule. Registering an existing name
// replaces the prior schedule and restarts its cadence from now.
func (s *Scheduler) Register(name string, schedule Schedule) {
	s.mu.Lock()
	s.schedules[name] = schedule
	delete(s.nexts, name)
	s.mu.Unlock()

	s.wake()
}

// Unregister removes the named schedule. Unknown names are ignored.
func (s *Scheduler) Unregister(name string) {
	s.mu.Lock()
	delete(s.schedules, name)
	delete(s.nexts, name)
	s.mu.Unlock()

	s.wake()
}

func (s *Scheduler) wake() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Run blocks, emitting due events until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	for {
		name, due, ok := s.nextDue(time.Now())
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.changed:
				continue
			}
		}

		delay := time.Until(due)
		if delay < 0 {
			delay = 0
		}
		timer := time.NewTimer(delay)
		s.logger.Debug().Str("schedule", name).Time("due", due).Msg("waiting for next tick")

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.changed:
			timer.Stop()
			continue
		case <-timer.C:
		}

		if !s.advance(name, due) {
			// unregistered while the timer was in flight
			continue
		}

		select {
		case s.ticks <- Event{Name: name, Due: due}:
		default:
			s.logger.Warn().Str("schedule", name).Time("due", due).Msg("tick skipped, previous run still in progress")
		}
	}
}

func (s *Scheduler) nextDue(now time.Time) (string, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bestName string
	var best time.Time
	for name, sched := range s.schedules {
		next, ok := s.nexts[name]
		if !ok {
			next = sched.next(now)
			s.nexts[name] = next
		}
		if bestName == "" || next.Before(best) {
			bestName, best = name, next
		}
	}
	if bestName == "" {
		return "", time.Time{}, false
	}
	return bestName, best, true
}

// advance computes the following fire time and reports whether the schedule
// is still registered. Wall-clock lag never produces a catch-up burst: the
// next fire is always computed from the later of the due instant and the
// current time.
func (s *Scheduler) advance(name string, fired time.Time) bool {
	now := time.Now()
	if fired.After(now) {
		now = fired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[name]
	if !ok {
		return false
	}
	s.nexts[name] = sched.next(now)
	return true
}
