package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spawnwatch/spawnwatch/pkg/recur"
)

func TestDefaultSeedIsWellFormed(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 1, 0, time.UTC)
	seen := map[string]bool{}
	for _, ev := range DefaultSeed() {
		if ev.ID == "" || ev.Name == "" || ev.Location == "" {
			t.Errorf("seed event %q missing identity fields", ev.Name)
		}
		if seen[ev.ID] {
			t.Errorf("duplicate seed id %s", ev.ID)
		}
		seen[ev.ID] = true
		if len(ev.Rewards) == 0 {
			t.Errorf("seed event %s has no rewards", ev.ID)
		}
		if len(ev.Occurrences(now)) == 0 {
			t.Errorf("seed event %s has no upcoming occurrences", ev.ID)
		}
	}
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.yaml")
	content := `events:
  - id: custom-1
    name: Golden Dragon
    map: Atlans
    items:
      - Jewel of Bless
      - Jewel of Soul
    rule:
      kind: interval
      every_hours: 6
  - id: custom-2
    name: Ice Queen
    map: Devias
    items:
      - Rare Ticket
    rule:
      kind: daily
      daily: ["04:00", "16:00"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}

	events, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Rule == nil || events[0].Rule.Kind != recur.KindInterval || events[0].Rule.EveryHours != 6 {
		t.Errorf("rule not parsed: %+v", events[0].Rule)
	}
	if events[1].Rule == nil || len(events[1].Rule.Daily) != 2 {
		t.Errorf("daily rule not parsed: %+v", events[1].Rule)
	}
}

func TestLoadSeedFileErrors(t *testing.T) {
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	os.WriteFile(empty, []byte("events: []\n"), 0644)
	if _, err := LoadSeedFile(empty); err == nil {
		t.Error("expected error for empty seed")
	}
}
