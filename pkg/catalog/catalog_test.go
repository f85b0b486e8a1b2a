package catalog

import (
	"testing"
	"time"

	"github.com/spawnwatch/spawnwatch/pkg/recur"
	"github.com/spawnwatch/spawnwatch/pkg/store"
)

func testSeed() []Event {
	return []Event{
		{ID: "a", Name: "Alpha", Location: "Lorencia", Rewards: []string{"ruud"}},
		{ID: "b", Name: "Beta", Location: "Noria", Rewards: []string{"wc"}},
	}
}

func TestNewStoreLoadsSeedWhenEmpty(t *testing.T) {
	s := NewStore(store.NewMemory(), testSeed())

	events := s.List()
	if len(events) != 2 {
		t.Fatalf("expected seeded catalog of 2, got %d", len(events))
	}
	if s.Version() != 0 {
		t.Errorf("fresh catalog should be version 0, got %d", s.Version())
	}
	if s.IsModifiedFromDefault() {
		t.Error("fresh catalog must not report modified")
	}
	if !s.LastModified().IsZero() {
		t.Error("fresh catalog must have zero last-modified")
	}
}

func TestMutationsBumpVersionByOne(t *testing.T) {
	s := NewStore(store.NewMemory(), nil)

	added := s.Add(Event{Name: "Gamma", Location: "Ferea", Rewards: []string{"x"}})
	if added.ID == "" {
		t.Fatal("Add must mint an id")
	}
	if s.Version() != 1 {
		t.Fatalf("expected version 1 after add, got %d", s.Version())
	}

	if !s.Update(added.ID, Event{Name: "Gamma2", Location: "Ferea", Rewards: []string{"x"}}) {
		t.Fatal("Update of existing id failed")
	}
	if s.Version() != 2 {
		t.Fatalf("expected version 2 after update, got %d", s.Version())
	}

	if !s.Delete(added.ID) {
		t.Fatal("Delete of existing id failed")
	}
	if s.Version() != 3 {
		t.Fatalf("expected version 3 after delete, got %d", s.Version())
	}

	// Reads do not bump.
	s.List()
	s.ExportSnapshot()
	if s.Version() != 3 {
		t.Errorf("reads must not change the version, got %d", s.Version())
	}

	if !s.IsModifiedFromDefault() {
		t.Error("modified sentinel should be set after mutations")
	}
	if s.LastModified().IsZero() {
		t.Error("last-modified should be stamped after mutations")
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	s := NewStore(store.NewMemory(), testSeed())
	if s.Update("missing", Event{Name: "X"}) {
		t.Error("Update of unknown id must return false")
	}
	if s.Delete("missing") {
		t.Error("Delete of unknown id must return false")
	}
	if s.Version() != 0 {
		t.Errorf("failed mutations must not bump the version, got %d", s.Version())
	}
}

func TestCatalogPersistsAcrossHydration(t *testing.T) {
	kv := store.NewMemory()
	s := NewStore(kv, testSeed())
	s.Add(Event{ID: "c", Name: "Gamma", Location: "Devias", Rewards: []string{"gp"}})

	// A second store over the same KV sees the persisted state, not the seed.
	reloaded := NewStore(kv, testSeed())
	events := reloaded.List()
	if len(events) != 3 {
		t.Fatalf("expected 3 events after rehydration, got %d", len(events))
	}
	if reloaded.Version() != 1 {
		t.Errorf("expected version 1 after rehydration, got %d", reloaded.Version())
	}
	if !reloaded.IsModifiedFromDefault() {
		t.Error("modified sentinel should survive rehydration")
	}
}

func TestResetRestoresSeedAndClearsBookkeeping(t *testing.T) {
	kv := store.NewMemory()
	s := NewStore(kv, testSeed())
	s.Add(Event{Name: "Extra", Rewards: []string{"x"}})
	s.Delete("a")

	s.Reset()

	events := s.List()
	if len(events) != 2 || events[0].ID != "a" {
		t.Fatalf("expected seed catalog after reset, got %v", events)
	}
	if s.Version() != 0 || s.IsModifiedFromDefault() || !s.LastModified().IsZero() {
		t.Error("reset must clear version, sentinel and last-modified")
	}
	if _, ok := kv.Get(store.KeyCatalog); ok {
		t.Error("reset must remove the persisted catalog blob")
	}
}

func TestObserversFireOnMutation(t *testing.T) {
	s := NewStore(store.NewMemory(), nil)
	fired := 0
	s.Subscribe(func() { fired++ })

	s.Add(Event{Name: "X", Rewards: []string{"r"}})
	s.Reset()
	if fired != 2 {
		t.Errorf("expected 2 observer notifications, got %d", fired)
	}

	s.List()
	if fired != 2 {
		t.Errorf("reads must not notify observers, got %d", fired)
	}
}

func TestOccurrencesPreferRuleOverTimes(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 17, 0, 0, time.UTC)
	ev := Event{
		ID:    "x",
		Times: []time.Time{now.Add(time.Hour)},
		Rule:  &recur.Rule{Kind: recur.KindInterval, EveryHours: 3},
	}
	got := ev.Occurrences(now)
	if len(got) != 17 {
		t.Fatalf("expected rule expansion, got %d instants", len(got))
	}

	ev.Rule = nil
	got = ev.Occurrences(now)
	if len(got) != 1 || !got[0].Equal(now.Add(time.Hour)) {
		t.Errorf("expected explicit bag expansion, got %v", got)
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := NewStore(store.NewMemory(), testSeed())
	events := s.List()
	events[0].Name = "mutated"
	events[0].Rewards[0] = "mutated"

	fresh := s.List()
	if fresh[0].Name != "Alpha" || fresh[0].Rewards[0] != "ruud" {
		t.Error("List must return defensive copies")
	}
}
