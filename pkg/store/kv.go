package store

import (
	"encoding/json"
	"log"
	"sync"
)

// Persisted keys. Every durable value the system owns lives under one of
// these namespaced strings.
const (
	KeyCatalog       = "spawnwatch:events"
	KeyVersion       = "spawnwatch:db_version"
	KeyLastModified  = "spawnwatch:admin_modified"
	KeyModified      = "spawnwatch:modified_sentinel"
	KeyFollowed      = "spawnwatch:followed_events"
	KeyPinned        = "spawnwatch:pinned_events"
	KeyNotifications = "spawnwatch:notifications_enabled"
	KeyAdminSession  = "spawnwatch:admin_session"
)

// KV is the persistence adapter. Implementations are synchronous and must
// never panic: a failed read reports absent, a failed write is logged and
// dropped. Callers treat storage as best-effort; losing the backend degrades
// the process to in-memory state for the session.
type KV interface {
	// Get returns the stored value for key, or ok=false when absent.
	Get(key string) ([]byte, bool)

	// Set stores value under key, overwriting any previous value.
	Set(key string, value []byte)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string)
}

// GetJSON reads key and unmarshals it into v. Malformed stored JSON is
// treated as absent (logged, never raised).
func GetJSON(kv KV, key string, v interface{}) bool {
	raw, ok := kv.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Printf("store: discarding malformed value for %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON marshals v and stores it under key. Marshal failures are logged
// and dropped, matching the fire-and-forget write contract.
func SetJSON(kv KV, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("store: failed to marshal value for %s: %v", key, err)
		return
	}
	kv.Set(key, raw)
}

// Memory is the in-process KV used when no durable backend is configured.
// It satisfies the same contract with session-only lifetime.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	if !ok {
		return nil, false
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	return cp, true
}

func (m *Memory) Set(key string, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.mu.Lock()
	m.data[key] = cp
	m.mu.Unlock()
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
}
