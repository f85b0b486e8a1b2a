package sched

import (
	"sync"
	"time"
)

// Scheduler owns every periodic task in the process: board re-ranking,
// per-event notification checks, stored-version polling. One central
// ticking clock with named, independently cancelable tasks keeps teardown
// simple; nothing registers a bare time.Ticker outside this package.
type Scheduler struct {
	clock Clock
	mu    sync.Mutex
	tasks map[string]*task
}

type task struct {
	ticker Ticker
	stop   chan struct{}
	done   chan struct{}
}

// New creates a scheduler on the given clock.
func New(clock Clock) *Scheduler {
	return &Scheduler{
		clock: clock,
		tasks: make(map[string]*task),
	}
}

// Clock exposes the scheduler's clock so collaborators share one time
// source.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Every registers fn to run every interval under the given name, replacing
// any existing task with that name. When immediate is set, fn runs once
// synchronously before the first tick.
func (s *Scheduler) Every(name string, interval time.Duration, immediate bool, fn func(now time.Time)) {
	s.Cancel(name)

	if immediate {
		fn(s.clock.Now())
	}

	t := &task{
		ticker: s.clock.NewTicker(interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.tasks[name] = t
	s.mu.Unlock()

	go func() {
		defer close(t.done)
		defer t.ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case now := <-t.ticker.C():
				fn(now)
			}
		}
	}()
}

// Cancel stops the named task and waits for its loop to exit. Canceling an
// unknown name is a no-op.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	t, ok := s.tasks[name]
	if ok {
		delete(s.tasks, name)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	close(t.stop)
	<-t.done
}

// CancelAll stops every registered task.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[string]*task)
	s.mu.Unlock()

	for _, t := range tasks {
		close(t.stop)
		<-t.done
	}
}

// Names returns the currently registered task names.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	return names
}
