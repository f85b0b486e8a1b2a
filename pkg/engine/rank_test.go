package engine

import (
	"testing"
	"time"

	"github.com/spawnwatch/spawnwatch/pkg/catalog"
	"github.com/spawnwatch/spawnwatch/pkg/recur"
)

var rankNow = time.Date(2026, 3, 10, 10, 17, 30, 0, time.UTC)

func explicitEvent(id string, times ...time.Time) catalog.Event {
	return catalog.Event{ID: id, Name: id, Times: times}
}

func TestNextOccurrence(t *testing.T) {
	past := rankNow.Add(-time.Hour)
	soon := rankNow.Add(10 * time.Minute)
	later := rankNow.Add(2 * time.Hour)

	// Unsorted input with past instants mixed in.
	got := NextOccurrence([]time.Time{later, past, soon}, rankNow)
	if !got.Equal(soon) {
		t.Errorf("expected %v, got %v", soon, got)
	}

	if got := NextOccurrence([]time.Time{past}, rankNow); !got.IsZero() {
		t.Errorf("expected zero time for all-past input, got %v", got)
	}
	if got := NextOccurrence(nil, rankNow); !got.IsZero() {
		t.Errorf("expected zero time for empty input, got %v", got)
	}
	// An instant exactly at now is not upcoming.
	if got := NextOccurrence([]time.Time{rankNow}, rankNow); !got.IsZero() {
		t.Errorf("instant equal to now must not count, got %v", got)
	}
}

func TestIsActiveBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		start  time.Time
		active bool
	}{
		{"just started", rankNow, true},
		{"ten minutes in", rankNow.Add(-10 * time.Minute), true},
		{"exactly at window edge", rankNow.Add(-ActiveWindow), true},
		{"one second past window", rankNow.Add(-ActiveWindow - time.Second), false},
		{"in the future", rankNow.Add(time.Minute), false},
	}
	for _, tc := range cases {
		if got := IsActive(tc.start, rankNow); got != tc.active {
			t.Errorf("%s: expected active=%v, got %v", tc.name, tc.active, got)
		}
	}
}

func TestStatusExplicitEventStaysActiveAfterStart(t *testing.T) {
	// The occurrence generator filters past instants, but a stored instant
	// ten minutes old still makes the event live.
	started := rankNow.Add(-10 * time.Minute)
	ev := explicitEvent("boss", started, rankNow.Add(3*time.Hour))

	next, active := Status(ev, rankNow)
	if !active {
		t.Error("event that started 10 minutes ago must be active")
	}
	if !next.Equal(rankNow.Add(3 * time.Hour)) {
		t.Errorf("next should be the later instant, got %v", next)
	}
}

func TestStatusHourlyOnTheHourIsActivePastBoundary(t *testing.T) {
	ev := catalog.Event{
		ID:   "hourly",
		Rule: &recur.Rule{Kind: recur.KindHourly, Minute: 0},
	}

	// 10:17, so the 10:00 instant is inside the active window.
	_, active := Status(ev, rankNow)
	if !active {
		t.Error("on-the-hour event should be active 17 minutes past the hour")
	}
}

func TestRankOrdering(t *testing.T) {
	a := explicitEvent("a", rankNow.Add(2*time.Hour))
	b := explicitEvent("b", rankNow.Add(30*time.Minute))
	c := explicitEvent("c") // nothing scheduled
	d := explicitEvent("d", rankNow.Add(30*time.Minute))

	entries := Rank([]catalog.Event{a, b, c, d}, rankNow)

	wantOrder := []string{"b", "d", "a", "c"}
	for i, want := range wantOrder {
		if entries[i].Event.ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, entries[i].Event.ID)
		}
	}
	if !entries[3].Next.IsZero() {
		t.Error("unscheduled event should carry the zero sentinel")
	}
}

func TestRankTiesKeepInsertionOrder(t *testing.T) {
	at := rankNow.Add(time.Hour)
	entries := Rank([]catalog.Event{
		explicitEvent("first", at),
		explicitEvent("second", at),
		explicitEvent("third", at),
	}, rankNow)

	for i, want := range []string{"first", "second", "third"} {
		if entries[i].Event.ID != want {
			t.Fatalf("tie order broken at %d: got %s", i, entries[i].Event.ID)
		}
	}
}

func TestUpcomingBadgeSharedByTies(t *testing.T) {
	soon := rankNow.Add(20 * time.Minute)
	entries := Rank([]catalog.Event{
		explicitEvent("tied-1", soon),
		explicitEvent("tied-2", soon),
		explicitEvent("later", rankNow.Add(time.Hour)),
	}, rankNow)

	if !entries[0].Upcoming || !entries[1].Upcoming {
		t.Error("both tied entries should carry the upcoming badge")
	}
	if entries[2].Upcoming {
		t.Error("later entry must not be upcoming")
	}
}

func TestUpcomingSkipsActiveEvents(t *testing.T) {
	entries := Rank([]catalog.Event{
		explicitEvent("live", rankNow.Add(-5*time.Minute)),
		explicitEvent("next-up", rankNow.Add(time.Hour)),
	}, rankNow)

	for _, e := range entries {
		switch e.Event.ID {
		case "live":
			if !e.Active {
				t.Error("live event should be active")
			}
			if e.Upcoming {
				t.Error("active event must not carry the upcoming badge")
			}
		case "next-up":
			if !e.Upcoming {
				t.Error("next-up should carry the upcoming badge")
			}
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{90*time.Minute + 5*time.Second, "1h 30m 5s"},
		{4*time.Minute + 30*time.Second, "4m 30s"},
		{45 * time.Second, "45s"},
		{0, "0s"},
		{-time.Minute, "0s"},
	}
	for _, tc := range cases {
		if got := FormatCountdown(tc.d); got != tc.want {
			t.Errorf("FormatCountdown(%v): expected %q, got %q", tc.d, tc.want, got)
		}
	}
}
