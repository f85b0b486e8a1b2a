package catalog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spawnwatch/spawnwatch/pkg/recur"
	"github.com/spawnwatch/spawnwatch/pkg/store"
)

// Event is a single catalog entry: what spawns, where, what it drops, and
// when. Wire field names match the import/export file format.
type Event struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Location    string      `json:"map" yaml:"map"`
	Rewards     []string    `json:"items" yaml:"items"`
	Times       []time.Time `json:"times" yaml:"times,omitempty"`
	Rule        *recur.Rule `json:"rule,omitempty" yaml:"rule,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Following   bool        `json:"following,omitempty" yaml:"-"`
}

// Occurrences expands the event's schedule into concrete future instants.
// Rule-backed events regenerate a rolling window; explicit events filter
// their stored instant bag. An empty result means "no upcoming occurrence".
func (e *Event) Occurrences(now time.Time) []time.Time {
	if e.Rule != nil {
		return recur.Expand(*e.Rule, now)
	}
	return recur.Expand(recur.Rule{Kind: recur.KindTimes, Times: e.Times}, now)
}

// Store is the single writable source of truth for event content. Every
// mutation writes through to the KV, bumps the monotonic version counter,
// stamps last-modified, and fans out to observers.
type Store struct {
	mu        sync.RWMutex
	kv        store.KV
	events    []Event
	version   int
	lastMod   time.Time
	modified  bool
	seed      []Event
	observers []func()
	nowFn     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNowFunc overrides the clock used for last-modified stamps.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Store) { s.nowFn = fn }
}

// NewStore creates a catalog over kv and hydrates it. When the KV holds no
// catalog the seed is loaded in-memory without being persisted, so a fresh
// profile reports version 0 and unmodified.
func NewStore(kv store.KV, seed []Event, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		seed:  cloneEvents(seed),
		nowFn: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	var stored []Event
	if store.GetJSON(s.kv, store.KeyCatalog, &stored) {
		s.events = stored
	} else {
		s.events = cloneEvents(s.seed)
	}

	var version int
	if store.GetJSON(s.kv, store.KeyVersion, &version) {
		s.version = version
	}

	if raw, ok := s.kv.Get(store.KeyLastModified); ok {
		if t, err := time.Parse(time.RFC3339Nano, string(raw)); err == nil {
			s.lastMod = t
		}
	}

	_, s.modified = s.kv.Get(store.KeyModified)
}

// Subscribe registers fn to run after every catalog mutation. Observers are
// invoked synchronously outside the store lock.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	observers := make([]func(), len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()
	for _, fn := range observers {
		fn()
	}
}

// List returns the catalog in insertion order.
func (s *Store) List() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEvents(s.events)
}

// Get returns the event with the given id.
func (s *Store) Get(id string) (Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return Event{}, false
}

// Add appends a new event, minting an id when absent, and returns the
// stored record.
func (s *Store) Add(ev Event) Event {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return ev
}

// Update replaces the event with the given id. Returns false when the id is
// unknown, in which case nothing is persisted.
func (s *Store) Update(id string, ev Event) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.events {
		if s.events[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return false
	}
	ev.ID = id
	s.events[idx] = ev
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return true
}

// Delete removes the event with the given id.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.events {
		if s.events[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return false
	}
	s.events = append(s.events[:idx], s.events[idx+1:]...)
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return true
}

// Reset clears all persisted catalog state and reloads the seed. Version
// returns to 0 and the modified sentinel is cleared.
func (s *Store) Reset() {
	s.mu.Lock()
	s.kv.Delete(store.KeyCatalog)
	s.kv.Delete(store.KeyVersion)
	s.kv.Delete(store.KeyLastModified)
	s.kv.Delete(store.KeyModified)
	s.events = cloneEvents(s.seed)
	s.version = 0
	s.lastMod = time.Time{}
	s.modified = false
	s.mu.Unlock()
	s.notify()
}

// Reload re-hydrates from the KV, picking up writes made by another
// process sharing the same backend. Observers fire afterwards.
func (s *Store) Reload() {
	s.mu.Lock()
	s.hydrate()
	s.mu.Unlock()
	s.notify()
}

// Version returns the monotonic catalog version. It increments by exactly
// one on every add/update/delete/import and resets only with Reset.
func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// LastModified returns the timestamp of the most recent persisted mutation,
// zero when the catalog has never been modified.
func (s *Store) LastModified() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMod
}

// IsModifiedFromDefault reports whether any mutation was ever persisted.
// This is a dedicated sentinel, distinct from the version counter.
func (s *Store) IsModifiedFromDefault() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// persistLocked writes the full collection through to the KV and advances
// the version bookkeeping. Callers hold the write lock.
func (s *Store) persistLocked() {
	now := s.nowFn()
	store.SetJSON(s.kv, store.KeyCatalog, s.events)
	s.version++
	store.SetJSON(s.kv, store.KeyVersion, s.version)
	s.lastMod = now
	s.kv.Set(store.KeyLastModified, []byte(now.Format(time.RFC3339Nano)))
	s.modified = true
	s.kv.Set(store.KeyModified, []byte("1"))
}

func cloneEvents(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	for i := range out {
		out[i].Rewards = append([]string(nil), out[i].Rewards...)
		out[i].Times = append([]time.Time(nil), out[i].Times...)
		if out[i].Rule != nil {
			rule := *out[i].Rule
			rule.Times = append([]time.Time(nil), rule.Times...)
			rule.Daily = append([]string(nil), rule.Daily...)
			out[i].Rule = &rule
		}
	}
	return out
}
