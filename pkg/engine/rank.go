package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/spawnwatch/spawnwatch/pkg/catalog"
)

// ActiveWindow is how long after its start an occurrence counts as live.
const ActiveWindow = 15 * time.Minute

// Entry is one board row: an event plus its computed timing state.
type Entry struct {
	Event    catalog.Event `json:"event"`
	Next     time.Time     `json:"next,omitempty"` // zero when nothing is scheduled
	Active   bool          `json:"active"`
	Upcoming bool          `json:"upcoming"`
	Pinned   bool          `json:"pinned"`
	Followed bool          `json:"followed"`
}

// NextOccurrence returns the first instant strictly after now, or the zero
// time when none exists. Times need not be sorted.
func NextOccurrence(times []time.Time, now time.Time) time.Time {
	var next time.Time
	for _, t := range times {
		if !t.After(now) {
			continue
		}
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next
}

// IsActive reports whether an occurrence that started at t is still live
// at now.
func IsActive(t, now time.Time) bool {
	since := now.Sub(t)
	return since >= 0 && since <= ActiveWindow
}

// Status computes an event's next occurrence and live state at now.
//
// Activity is judged over the generated occurrence set plus, for events
// with an explicit instant bag and no rule, the raw stored instants. The
// generated set filters past instants out, which would otherwise hide an
// explicit event that started minutes ago.
func Status(ev catalog.Event, now time.Time) (next time.Time, active bool) {
	occ := ev.Occurrences(now)
	next = NextOccurrence(occ, now)

	candidates := occ
	if ev.Rule == nil {
		candidates = ev.Times
	}
	for _, t := range candidates {
		if IsActive(t, now) {
			active = true
			break
		}
	}
	return next, active
}

// Rank orders events ascending by next occurrence. Events with nothing
// scheduled sort last; ties keep catalog insertion order. Non-active
// entries sharing the earliest next occurrence are flagged upcoming.
func Rank(events []catalog.Event, now time.Time) []Entry {
	entries := make([]Entry, len(events))
	for i, ev := range events {
		next, active := Status(ev, now)
		entries[i] = Entry{Event: ev, Next: next, Active: active}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Next, entries[j].Next
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.Before(b)
	})

	markUpcoming(entries)
	return entries
}

// markUpcoming flags every non-active entry whose next occurrence equals
// the earliest next occurrence across non-active entries. Ties all get the
// badge.
func markUpcoming(entries []Entry) {
	var min time.Time
	for _, e := range entries {
		if e.Active || e.Next.IsZero() {
			continue
		}
		if min.IsZero() || e.Next.Before(min) {
			min = e.Next
		}
	}
	if min.IsZero() {
		return
	}
	for i := range entries {
		if !entries[i].Active && entries[i].Next.Equal(min) {
			entries[i].Upcoming = true
		}
	}
}

// FormatCountdown renders a duration as a compact h/m/s countdown. Negative
// durations clamp to zero.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
