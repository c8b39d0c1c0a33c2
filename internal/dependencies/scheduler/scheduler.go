package scheduler

import (
	"sync"
	"time"
)

// Scheduler runs delayed tasks keyed by an owner, at most one per key.
// Scheduling a key that already has a pending task replaces it.
type Scheduler interface {
	Schedule(key string, delay time.Duration, task func())
	Cancel(key string) bool
	Pending(key string) bool
	Stop()
}

// TimerScheduler implements Scheduler with time.AfterFunc
type TimerScheduler struct {
	mu      sync.Mutex
	timers  map[string]*entry
	stopped bool
}

type entry struct {
	timer *time.Timer
}

// New creates a new TimerScheduler
func New() *TimerScheduler {
	return &TimerScheduler{
		timers: make(map[string]*entry),
	}
}

// Schedule runs task after delay unless cancelled or replaced first
func (s *TimerScheduler) Schedule(key string, delay time.Duration, task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if existing, ok := s.timers[key]; ok {
		existing.timer.Stop()
	}

	e := &entry{}
	e.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		current, ok := s.timers[key]
		if !ok || current != e {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.mu.Unlock()
		task()
	})
	s.timers[key] = e
}

// Cancel stops the pending task for key, reporting whether one existed
func (s *TimerScheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.timers, key)
	return true
}

// Pending reports whether key has a task waiting to fire
func (s *TimerScheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}

// Stop cancels every pending task and rejects new ones
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, key)
	}
	s.stopped = true
}
