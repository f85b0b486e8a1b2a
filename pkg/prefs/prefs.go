package prefs

import (
	"sync"

	"github.com/spawnwatch/spawnwatch/pkg/store"
)

// MaxPinned caps the pin shortlist. Pinning a fifth event evicts the
// oldest-pinned survivor (FIFO by insertion, not recency of use).
const MaxPinned = 4

// Store holds the user's followed and pinned event ids plus the global
// notifications flag. Every mutation writes through to the KV immediately.
type Store struct {
	mu            sync.Mutex
	kv            store.KV
	followed      []string
	pinned        []string
	notifications bool
}

// NewStore hydrates preferences from kv.
func NewStore(kv store.KV) *Store {
	s := &Store{kv: kv}
	store.GetJSON(kv, store.KeyFollowed, &s.followed)
	store.GetJSON(kv, store.KeyPinned, &s.pinned)
	store.GetJSON(kv, store.KeyNotifications, &s.notifications)
	return s
}

// Followed returns the followed event ids in insertion order.
func (s *Store) Followed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.followed...)
}

// AddFollowed follows an event. Idempotent.
func (s *Store) AddFollowed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.followed, id) != -1 {
		return
	}
	s.followed = append(s.followed, id)
	store.SetJSON(s.kv, store.KeyFollowed, s.followed)
}

// RemoveFollowed unfollows an event. Idempotent.
func (s *Store) RemoveFollowed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.followed, id)
	if idx == -1 {
		return
	}
	s.followed = append(s.followed[:idx], s.followed[idx+1:]...)
	store.SetJSON(s.kv, store.KeyFollowed, s.followed)
}

// IsFollowed reports followed-set membership.
func (s *Store) IsFollowed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.followed, id) != -1
}

// Pinned returns the pinned event ids, oldest first.
func (s *Store) Pinned() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pinned...)
}

// AddPinned pins an event. Already-pinned ids are a no-op; at capacity the
// oldest pin is evicted first.
func (s *Store) AddPinned(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.pinned, id) != -1 {
		return
	}
	if len(s.pinned) >= MaxPinned {
		s.pinned = s.pinned[1:]
	}
	s.pinned = append(s.pinned, id)
	store.SetJSON(s.kv, store.KeyPinned, s.pinned)
}

// RemovePinned unpins an event. Idempotent.
func (s *Store) RemovePinned(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.pinned, id)
	if idx == -1 {
		return
	}
	s.pinned = append(s.pinned[:idx], s.pinned[idx+1:]...)
	store.SetJSON(s.kv, store.KeyPinned, s.pinned)
}

// IsPinned reports pinned-set membership.
func (s *Store) IsPinned(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.pinned, id) != -1
}

// NotificationsEnabled reports the global notifications flag.
func (s *Store) NotificationsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifications
}

// SetNotificationsEnabled persists the flag. It does not start or stop any
// watchers by itself; callers own the notification scheduler's lifecycle.
func (s *Store) SetNotificationsEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = enabled
	store.SetJSON(s.kv, store.KeyNotifications, s.notifications)
}

// Reset clears all in-memory and persisted preference state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.followed = nil
	s.pinned = nil
	s.notifications = false
	s.kv.Delete(store.KeyFollowed)
	s.kv.Delete(store.KeyPinned)
	s.kv.Delete(store.KeyNotifications)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
