package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Trigger is a wall-clock time specification: either daily at Hour:Minute or
// hourly at Minute, evaluated in the scheduler's location.
type Trigger struct {
	Hour   int
	Minute int
	Hourly bool
}

// Daily triggers once a day at hour:minute.
func Daily(hour, minute int) Trigger {
	return Trigger{Hour: hour, Minute: minute}
}

// Hourly triggers once an hour at minute.
func Hourly(minute int) Trigger {
	return Trigger{Minute: minute, Hourly: true}
}

// Job binds an id and a trigger to an action. Actions report failure through
// their error return; the scheduler logs it and keeps the job armed.
type Job struct {
	ID      string
	Trigger Trigger
	Run     func(ctx context.Context) error
}

type jobState struct {
	job  Job
	next time.Time
}

// Scheduler fires registered jobs from a single background goroutine, one at
// a time. A slow job delays only its own next alignment.
type Scheduler struct {
	mu    sync.Mutex
	jobs  map[string]*jobState
	order []string
	loc   *time.Location
	log   *slog.Logger
	now   func() time.Time
}

// New builds a Scheduler operating in loc.
func New(loc *time.Location, log *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		jobs: make(map[string]*jobState),
		loc:  loc,
		log:  log,
		now:  time.Now,
	}
}

// Register adds a job to the registry. Registering an id that already exists
// replaces the prior binding instead of creating a second job.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.jobs[job.ID]; ok {
		st.job = job
		st.next = nextFire(s.now().In(s.loc), job.Trigger, s.loc)
		s.log.Info("job replaced", slog.String("job", job.ID))
		return
	}

	s.jobs[job.ID] = &jobState{
		job:  job,
		next: nextFire(s.now().In(s.loc), job.Trigger, s.loc),
	}
	s.order = append(s.order, job.ID)
	s.log.Info("job registered", slog.String("job", job.ID))
}

// Len reports the registry cardinality.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Start runs the firing loop until ctx is canceled. It blocks; run it in its
// own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("scheduler started", slog.Int("jobs", s.Len()), slog.String("timezone", s.loc.String()))

	for {
		next, ok := s.soonest()
		if !ok {
			s.log.Warn("scheduler has no jobs, stopping")
			return
		}

		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("scheduler stopped")
			return
		case <-timer.C:
		}

		s.runDue(ctx)
	}
}

func (s *Scheduler) soonest() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next time.Time
	found := false
	for _, st := range s.jobs {
		if !found || st.next.Before(next) {
			next = st.next
			found = true
		}
	}
	return next, found
}

// runDue fires every job whose next time has passed, sequentially in
// registration order, then re-arms each from the current clock.
func (s *Scheduler) runDue(ctx context.Context) {
	now := s.now().In(s.loc)

	s.mu.Lock()
	due := make([]*jobState, 0, len(s.order))
	for _, id := range s.order {
		if st := s.jobs[id]; !st.next.After(now) {
			due = append(due, st)
		}
	}
	s.mu.Unlock()

	for _, st := range due {
		s.log.Info("job firing", slog.String("job", st.job.ID))
		if err := st.job.Run(ctx); err != nil {
			s.log.Error("job failed", slog.String("job", st.job.ID), slog.Any("err", err))
		}

		s.mu.Lock()
		st.next = nextFire(s.now().In(s.loc), st.job.Trigger, s.loc)
		s.mu.Unlock()
	}
}

// nextFire computes the first trigger alignment strictly after now.
func nextFire(now time.Time, trig Trigger, loc *time.Location) time.Time {
	if trig.Hourly {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), trig.Minute, 0, 0, loc)
		if !candidate.After(now) {
			candidate = candidate.Add(time.Hour)
		}
		return candidate
	}

	candidate := time.Date(now.Year(), now.Month(), now.Day(), trig.Hour, trig.Minute, 0, 0, loc)
	if !candidate.After(now) {
		candidate = time.Date(now.Year(), now.Month(), now.Day()+1, trig.Hour, trig.Minute, 0, 0, loc)
	}
	return candidate
}
