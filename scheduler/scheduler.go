// Package scheduler runs named background jobs: the periodic reminder sweep
// and the one-shot expiry of temporary boosts.
package scheduler

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler owns a set of named jobs. A name identifies one job of either
// kind; scheduling the name again replaces the pending job.
type Scheduler struct {
	mu      sync.Mutex
	jobs    map[string]*job
	running sync.WaitGroup
	logger  *zap.Logger
	stopped bool
}

type job struct {
	timer *time.Timer
	every time.Duration // zero for one-shot jobs
}

// New creates an empty Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{jobs: make(map[string]*job), logger: logger}
}

// AddTicker runs fn every interval until the job is removed or the scheduler
// stops. Runs never overlap: the next one is armed after fn returns.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn func()) {
	if s.schedule(name, interval, interval, fn) {
		s.logger.Info("scheduler job registered", zap.String("job", name), zap.Duration("every", interval))
	}
}

// AddDelay runs fn once after delay.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn func()) {
	s.schedule(name, delay, 0, fn)
}

func (s *Scheduler) schedule(name string, first, every time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.logger.Warn("scheduler stopped, job dropped", zap.String("job", name))
		return false
	}
	if old, ok := s.jobs[name]; ok {
		old.timer.Stop()
	}
	j := &job{every: every}
	j.timer = time.AfterFunc(first, func() { s.fire(name, j, fn) })
	s.jobs[name] = j
	return true
}

func (s *Scheduler) fire(name string, j *job, fn func()) {
	s.mu.Lock()
	if s.stopped || s.jobs[name] != j {
		s.mu.Unlock()
		return
	}
	if j.every == 0 {
		delete(s.jobs, name)
	}
	s.running.Add(1)
	s.mu.Unlock()

	s.run(name, fn)

	s.mu.Lock()
	if j.every > 0 && !s.stopped && s.jobs[name] == j {
		j.timer.Reset(j.every)
	}
	s.mu.Unlock()
	s.running.Done()
}

func (s *Scheduler) run(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler job panicked", zap.String("job", name), zap.Any("panic", r))
		}
	}()
	fn()
}

// Remove cancels a job by name. It reports whether a job was pending.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok {
		return false
	}
	j.timer.Stop()
	delete(s.jobs, name)
	return true
}

// Jobs returns the sorted names of the pending jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Stop cancels every job and waits for running ones to return. Jobs added
// afterwards are dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		for name, j := range s.jobs {
			j.timer.Stop()
			delete(s.jobs, name)
		}
	}
	s.mu.Unlock()
	s.running.Wait()
}
