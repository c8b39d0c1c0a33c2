package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/mcoot/partyrooms/internal/dependencies/scheduler"
)

// ManualScheduler is a Scheduler whose tasks only run when Fire is called
type ManualScheduler struct {
	mu    sync.Mutex
	tasks map[string]ScheduledTask
}

// ScheduledTask is a pending task captured by ManualScheduler
type ScheduledTask struct {
	Delay time.Duration
	Task  func()
}

// Ensure ManualScheduler implements Scheduler
var _ scheduler.Scheduler = (*ManualScheduler)(nil)

// NewManualScheduler creates an empty ManualScheduler
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{tasks: make(map[string]ScheduledTask)}
}

func (s *ManualScheduler) Schedule(key string, delay time.Duration, task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[key] = ScheduledTask{Delay: delay, Task: task}
}

func (s *ManualScheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	delete(s.tasks, key)
	return ok
}

func (s *ManualScheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

func (s *ManualScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[string]ScheduledTask)
}

// Delay returns the delay of the pending task for key
func (s *ManualScheduler) Delay(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[key]
	return t.Delay, ok
}

// Keys returns the keys of all pending tasks, sorted
func (s *ManualScheduler) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.tasks))
	for k := range s.tasks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fire runs and removes the pending task for key, reporting whether one existed
func (s *ManualScheduler) Fire(key string) bool {
	s.mu.Lock()
	t, ok := s.tasks[key]
	delete(s.tasks, key)
	s.mu.Unlock()
	if ok {
		t.Task()
	}
	return ok
}
