package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/spawnwatch/spawnwatch/pkg/store"
)

func TestImportMissingEventsRejected(t *testing.T) {
	s := NewStore(store.NewMemory(), testSeed())

	if s.ImportSnapshot([]byte(`{"version": 3}`)) {
		t.Error("payload without events must be rejected")
	}
	if s.ImportSnapshot([]byte(`{"events": "notalist"}`)) {
		t.Error("non-array events must be rejected")
	}
	if s.ImportSnapshot([]byte(`{garbage`)) {
		t.Error("malformed JSON must be rejected")
	}

	if s.Version() != 0 || len(s.List()) != 2 {
		t.Error("failed imports must leave the catalog untouched")
	}
}

func TestImportEmptyEventsEmptiesCatalog(t *testing.T) {
	s := NewStore(store.NewMemory(), testSeed())

	if !s.ImportSnapshot([]byte(`{"events": []}`)) {
		t.Fatal("empty events array is a valid import")
	}
	if len(s.List()) != 0 {
		t.Errorf("expected empty catalog, got %d events", len(s.List()))
	}
	if s.Version() != 1 {
		t.Errorf("import must bump the version exactly once, got %d", s.Version())
	}
	if !s.IsModifiedFromDefault() {
		t.Error("import must set the modified sentinel")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewStore(store.NewMemory(), testSeed())
	when := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.Add(Event{
		ID:       "c",
		Name:     "Gamma",
		Location: "Devias",
		Rewards:  []string{"gp", "ruud"},
		Times:    []time.Time{when, when.Add(3 * time.Hour)},
	})
	before := s.List()

	raw := s.ExportSnapshot()
	if raw == nil {
		t.Fatal("export returned nil")
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if snap.Version != 1 {
		t.Errorf("expected exported version 1, got %d", snap.Version)
	}
	if snap.LastModified == nil {
		t.Error("expected lastModified in export after a mutation")
	}
	if snap.ExportDate.IsZero() {
		t.Error("expected an export timestamp")
	}

	// Import into a fresh store and compare the event content.
	other := NewStore(store.NewMemory(), nil)
	if !other.ImportSnapshot(raw) {
		t.Fatal("round-trip import failed")
	}
	after := other.List()
	if len(after) != len(before) {
		t.Fatalf("expected %d events after round trip, got %d", len(before), len(after))
	}
	for i := range before {
		if after[i].ID != before[i].ID || after[i].Name != before[i].Name {
			t.Errorf("event %d mismatch: %+v vs %+v", i, before[i], after[i])
		}
		if len(after[i].Rewards) != len(before[i].Rewards) {
			t.Errorf("event %d rewards mismatch", i)
		}
		if len(after[i].Times) != len(before[i].Times) {
			t.Errorf("event %d times mismatch", i)
		}
		for j := range before[i].Times {
			if !after[i].Times[j].Equal(before[i].Times[j]) {
				t.Errorf("event %d instant %d mismatch: %v vs %v", i, j, before[i].Times[j], after[i].Times[j])
			}
		}
	}
}

func TestExportFreshCatalogHasNullLastModified(t *testing.T) {
	s := NewStore(store.NewMemory(), testSeed())
	raw := s.ExportSnapshot()

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if string(envelope["lastModified"]) != "null" {
		t.Errorf("expected null lastModified, got %s", envelope["lastModified"])
	}
}
