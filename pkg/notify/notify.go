package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spawnwatch/spawnwatch/pkg/sched"
)

const (
	// LeadWindow is how far ahead of an occurrence an alert fires.
	LeadWindow = 5 * time.Minute
	// CheckInterval is the per-event polling cadence.
	CheckInterval = 30 * time.Second
	// DedupTTL is how long an alerted occurrence key is remembered.
	// Slightly longer than the lead window so boundary re-checks stay
	// deduplicated, short enough that memory is eventually freed.
	DedupTTL = 6 * time.Minute

	taskPrefix = "notify:"
)

// Service owns one repeating lead-window check per followed event and
// guarantees at most one alert per (event, occurrence) pair while the dedup
// key lives.
//
// Dedup state is in-memory only. A process restart inside a lead window
// re-evaluates from the current time and may re-alert for an occurrence
// that was already announced; this is an accepted limitation of a
// best-effort local notifier.
type Service struct {
	scheduler *sched.Scheduler
	sink      Sink

	mu      sync.Mutex
	alerted map[string]time.Time // dedup key -> expiry
	watched map[string]bool
}

// NewService creates a notification service delivering through sink and
// scheduling checks on scheduler.
func NewService(scheduler *sched.Scheduler, sink Sink) *Service {
	return &Service{
		scheduler: scheduler,
		sink:      sink,
		alerted:   make(map[string]time.Time),
		watched:   make(map[string]bool),
	}
}

// Schedule starts (or restarts) the lead-window watcher for an event.
// timesFn supplies the event's upcoming occurrence instants for a given
// now, so rule-backed events stay fresh without re-scheduling. One check
// runs immediately, then every CheckInterval.
func (s *Service) Schedule(eventID, name string, timesFn func(now time.Time) []time.Time) {
	s.mu.Lock()
	s.watched[eventID] = true
	s.mu.Unlock()

	s.scheduler.Every(taskPrefix+eventID, CheckInterval, true, func(now time.Time) {
		s.check(eventID, name, timesFn(now), now)
	})
}

// Cancel stops the watcher for an event and purges its dedup keys.
// Idempotent.
func (s *Service) Cancel(eventID string) {
	s.scheduler.Cancel(taskPrefix + eventID)

	s.mu.Lock()
	delete(s.watched, eventID)
	prefix := eventID + "|"
	for key := range s.alerted {
		if strings.HasPrefix(key, prefix) {
			delete(s.alerted, key)
		}
	}
	s.mu.Unlock()
}

// CancelAll stops every watcher and clears all dedup state. Used when
// notifications are globally disabled and on teardown.
func (s *Service) CancelAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.watched))
	for id := range s.watched {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.scheduler.Cancel(taskPrefix + id)
	}

	s.mu.Lock()
	s.watched = make(map[string]bool)
	s.alerted = make(map[string]time.Time)
	s.mu.Unlock()
}

// Watching reports whether an event currently has a watcher.
func (s *Service) Watching(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watched[eventID]
}

// Announce delivers a routine confirmation (follow/unfollow feedback).
func (s *Service) Announce(title, message string) {
	s.sink.Deliver(Alert{Title: title, Message: message})
}

// check fires an important alert for every occurrence inside the lead
// window that has not been announced yet.
func (s *Service) check(eventID, name string, times []time.Time, now time.Time) {
	s.mu.Lock()
	// Expired dedup keys are dropped on the way through, freeing memory
	// without a timer per key.
	for key, expiry := range s.alerted {
		if !expiry.After(now) {
			delete(s.alerted, key)
		}
	}

	var due []time.Time
	for _, t := range times {
		diff := t.Sub(now)
		if diff <= 0 || diff > LeadWindow {
			continue
		}
		key := dedupKey(eventID, t)
		if _, seen := s.alerted[key]; seen {
			continue
		}
		s.alerted[key] = now.Add(DedupTTL)
		due = append(due, t)
	}
	s.mu.Unlock()

	for _, t := range due {
		minutes := int(t.Sub(now) / time.Minute)
		s.sink.Deliver(Alert{
			Title:     name,
			Message:   fmt.Sprintf("Event starts in %d minute(s)! Get ready!", minutes),
			Important: true,
			EventID:   eventID,
			At:        t,
		})
	}
}

func dedupKey(eventID string, t time.Time) string {
	return eventID + "|" + t.UTC().Format(time.RFC3339)
}
