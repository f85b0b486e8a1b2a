package catalog

import (
	"encoding/json"
	"log"
	"time"
)

// Snapshot is the self-describing import/export envelope. Everything except
// Events is advisory on import.
type Snapshot struct {
	Version      int        `json:"version"`
	LastModified *time.Time `json:"lastModified"`
	Events       []Event    `json:"events"`
	ExportDate   time.Time  `json:"exportDate"`
}

// snapshotIn mirrors Snapshot for parsing. Events is a pointer so a missing
// field is distinguishable from an empty list.
type snapshotIn struct {
	Events *[]Event `json:"events"`
}

// ExportSnapshot serializes the catalog with its version bookkeeping into a
// payload that round-trips through ImportSnapshot. Exporting does not count
// as a mutation.
func (s *Store) ExportSnapshot() []byte {
	s.mu.RLock()
	snap := Snapshot{
		Version:    s.version,
		Events:     cloneEvents(s.events),
		ExportDate: s.nowFn().UTC(),
	}
	if !s.lastMod.IsZero() {
		lm := s.lastMod
		snap.LastModified = &lm
	}
	s.mu.RUnlock()

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Printf("catalog: failed to marshal snapshot: %v", err)
		return nil
	}
	return raw
}

// ImportSnapshot replaces the entire catalog with the events from the
// payload: a bulk add with a single version bump. The payload must carry an
// `events` array; on any parse or shape failure the store is left untouched
// and false is returned. There are no partial imports.
func (s *Store) ImportSnapshot(raw []byte) bool {
	var in snapshotIn
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Printf("catalog: import rejected, malformed payload: %v", err)
		return false
	}
	if in.Events == nil {
		log.Printf("catalog: import rejected, missing events field")
		return false
	}

	s.mu.Lock()
	s.events = cloneEvents(*in.Events)
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
	return true
}
