package sched

import (
	"sort"
	"sync"
	"time"
)

// Clock abstracts wall time so timing logic is testable without sleeping.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the clock-owned periodic signal consumed by scheduler tasks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock is the production Clock backed by the runtime.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

// Manual is a virtual clock for tests. Advance moves time forward and
// delivers due ticks synchronously: the send blocks until the consuming
// task goroutine receives, so tests can coordinate on side channels
// without wall-clock sleeps.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

// NewManual creates a virtual clock frozen at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) NewTicker(d time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{
		clock:    m,
		ch:       make(chan time.Time),
		interval: d,
		next:     m.now.Add(d),
	}
	m.tickers = append(m.tickers, t)
	return t
}

// Advance moves the clock forward by d, firing every due tick in timestamp
// order. Each tick is delivered before the next one fires.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		due := m.dueTickersLocked(target)
		if len(due) == 0 {
			m.now = target
			m.mu.Unlock()
			return
		}
		t := due[0]
		fireAt := t.next
		m.now = fireAt
		t.next = t.next.Add(t.interval)
		m.mu.Unlock()

		// Blocking send: returns once the task goroutine has the tick.
		t.ch <- fireAt
	}
}

func (m *Manual) dueTickersLocked(target time.Time) []*manualTicker {
	var due []*manualTicker
	for _, t := range m.tickers {
		if !t.stopped && !t.next.After(target) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].next.Before(due[j].next) })
	return due
}

type manualTicker struct {
	clock    *Manual
	ch       chan time.Time
	interval time.Duration
	next     time.Time
	stopped  bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.clock.mu.Lock()
	t.stopped = true
	t.clock.mu.Unlock()
}
