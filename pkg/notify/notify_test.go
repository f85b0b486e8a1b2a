package notify

import (
	"testing"
	"time"

	"github.com/spawnwatch/spawnwatch/pkg/sched"
)

var notifyEpoch = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type chanSink struct {
	ch chan Alert
}

func newChanSink() *chanSink {
	return &chanSink{ch: make(chan Alert, 16)}
}

func (c *chanSink) Deliver(a Alert) { c.ch <- a }

func (c *chanSink) drain() []Alert {
	var out []Alert
	for {
		select {
		case a := <-c.ch:
			out = append(out, a)
		default:
			return out
		}
	}
}

func TestLeadWindowBoundaries(t *testing.T) {
	now := notifyEpoch
	cases := []struct {
		name  string
		at    time.Time
		alert bool
	}{
		{"three minutes ahead", now.Add(3 * time.Minute), true},
		{"exactly at lead window", now.Add(LeadWindow), true},
		{"just past lead window", now.Add(LeadWindow + time.Second), false},
		{"exactly now", now, false},
		{"in the past", now.Add(-time.Minute), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := newChanSink()
			s := NewService(sched.New(sched.NewManual(now)), sink)
			s.check("e1", "World Boss", []time.Time{tc.at}, now)

			got := sink.drain()
			if tc.alert && len(got) != 1 {
				t.Fatalf("expected 1 alert, got %d", len(got))
			}
			if !tc.alert && len(got) != 0 {
				t.Fatalf("expected no alert, got %v", got)
			}
			if tc.alert && !got[0].Important {
				t.Error("lead-window alerts must be important")
			}
		})
	}
}

func TestAlertMessageMinutes(t *testing.T) {
	sink := newChanSink()
	s := NewService(sched.New(sched.NewManual(notifyEpoch)), sink)

	s.check("e1", "World Boss", []time.Time{notifyEpoch.Add(4*time.Minute + 30*time.Second)}, notifyEpoch)

	a := <-sink.ch
	if a.Title != "World Boss" {
		t.Errorf("title: got %q", a.Title)
	}
	if a.Message != "Event starts in 4 minute(s)! Get ready!" {
		t.Errorf("message: got %q", a.Message)
	}
}

func TestDedupAcrossChecks(t *testing.T) {
	sink := newChanSink()
	s := NewService(sched.New(sched.NewManual(notifyEpoch)), sink)
	at := notifyEpoch.Add(3 * time.Minute)

	s.check("e1", "Boss", []time.Time{at}, notifyEpoch)
	s.check("e1", "Boss", []time.Time{at}, notifyEpoch.Add(30*time.Second))
	s.check("e1", "Boss", []time.Time{at}, notifyEpoch.Add(time.Minute))

	if got := sink.drain(); len(got) != 1 {
		t.Fatalf("expected exactly 1 alert across repeated checks, got %d", len(got))
	}

	// A later check past the TTL sweeps the expired key out, and the
	// occurrence is long past so nothing re-fires.
	s.check("e1", "Boss", []time.Time{at}, notifyEpoch.Add(DedupTTL+time.Second))
	if got := sink.drain(); len(got) != 0 {
		t.Fatalf("expected no alert after occurrence passed, got %v", got)
	}
	s.mu.Lock()
	remaining := len(s.alerted)
	s.mu.Unlock()
	if remaining != 0 {
		t.Errorf("expected expired dedup keys to be swept, %d remain", remaining)
	}
}

func TestDedupIsPerOccurrence(t *testing.T) {
	sink := newChanSink()
	s := NewService(sched.New(sched.NewManual(notifyEpoch)), sink)

	times := []time.Time{
		notifyEpoch.Add(2 * time.Minute),
		notifyEpoch.Add(4 * time.Minute),
	}
	s.check("e1", "Boss", times, notifyEpoch)

	if got := sink.drain(); len(got) != 2 {
		t.Fatalf("expected one alert per occurrence, got %d", len(got))
	}
}

func TestScheduleFiresImmediateCheck(t *testing.T) {
	clock := sched.NewManual(notifyEpoch)
	scheduler := sched.New(clock)
	defer scheduler.CancelAll()

	sink := newChanSink()
	s := NewService(scheduler, sink)

	at := notifyEpoch.Add(3 * time.Minute)
	called := make(chan time.Time, 4)
	s.Schedule("e1", "Boss", func(now time.Time) []time.Time {
		called <- now
		return []time.Time{at}
	})

	// The immediate check runs synchronously inside Schedule.
	<-called
	if got := sink.drain(); len(got) != 1 {
		t.Fatalf("expected immediate alert, got %d", len(got))
	}
	if !s.Watching("e1") {
		t.Error("event should be watched after Schedule")
	}

	// The repeating check re-evaluates but stays deduplicated. Cancel
	// joins the task goroutine, so the tick's check has fully finished
	// before the assertion.
	clock.Advance(CheckInterval)
	<-called
	s.Cancel("e1")
	if got := sink.drain(); len(got) != 0 {
		t.Fatalf("expected no duplicate alert on the next tick, got %v", got)
	}
}

func TestCancelPurgesDedupState(t *testing.T) {
	clock := sched.NewManual(notifyEpoch)
	scheduler := sched.New(clock)
	defer scheduler.CancelAll()

	sink := newChanSink()
	s := NewService(scheduler, sink)
	at := notifyEpoch.Add(3 * time.Minute)
	timesFn := func(now time.Time) []time.Time { return []time.Time{at} }

	s.Schedule("e1", "Boss", timesFn)
	<-sink.ch

	s.Cancel("e1")
	if s.Watching("e1") {
		t.Error("event should not be watched after Cancel")
	}
	s.Cancel("e1") // idempotent

	// Re-scheduling after a cancel alerts the same occurrence again.
	s.Schedule("e1", "Boss", timesFn)
	if got := sink.drain(); len(got) != 1 {
		t.Fatalf("expected re-alert after cancel cleared dedup, got %d", len(got))
	}
}

func TestCancelAllStopsWatchers(t *testing.T) {
	clock := sched.NewManual(notifyEpoch)
	scheduler := sched.New(clock)

	sink := newChanSink()
	s := NewService(scheduler, sink)

	s.Schedule("e1", "Boss", func(now time.Time) []time.Time { return nil })
	s.Schedule("e2", "Raid", func(now time.Time) []time.Time { return nil })
	s.CancelAll()

	if s.Watching("e1") || s.Watching("e2") {
		t.Error("no event should be watched after CancelAll")
	}
	if n := len(scheduler.Names()); n != 0 {
		t.Errorf("expected no scheduled tasks, got %d", n)
	}
}

func TestGateRouting(t *testing.T) {
	primary := newChanSink()
	fallback := newChanSink()
	enabled := false
	g := Gate{Primary: primary, Fallback: fallback, Enabled: func() bool { return enabled }}

	// Disabled: routine drops, important diverts.
	g.Deliver(Alert{Title: "followed", Important: false})
	g.Deliver(Alert{Title: "incoming", Important: true})
	if got := primary.drain(); len(got) != 0 {
		t.Errorf("primary should receive nothing while disabled, got %v", got)
	}
	if got := fallback.drain(); len(got) != 1 || got[0].Title != "incoming" {
		t.Errorf("fallback should receive only the important alert, got %v", got)
	}

	// Enabled: everything goes to primary.
	enabled = true
	g.Deliver(Alert{Title: "followed", Important: false})
	g.Deliver(Alert{Title: "incoming", Important: true})
	if got := primary.drain(); len(got) != 2 {
		t.Errorf("primary should receive both alerts while enabled, got %v", got)
	}
	if got := fallback.drain(); len(got) != 0 {
		t.Errorf("fallback should be idle while enabled, got %v", got)
	}
}

func TestFeedRingRetention(t *testing.T) {
	f := NewFeed(3)
	f.nowFn = func() time.Time { return notifyEpoch }

	for _, title := range []string{"a", "b", "c", "d", "e"} {
		f.Deliver(Alert{Title: title})
	}

	got := f.Recent()
	want := []string{"c", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("expected %d alerts, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Title != want[i] {
			t.Errorf("slot %d: expected %q, got %q", i, want[i], got[i].Title)
		}
		if !got[i].Delivered.Equal(notifyEpoch) {
			t.Errorf("slot %d: delivery timestamp not stamped", i)
		}
	}
}

func TestAnnounceIsRoutine(t *testing.T) {
	sink := newChanSink()
	s := NewService(sched.New(sched.NewManual(notifyEpoch)), sink)

	s.Announce("Following", "You will be notified before each occurrence")

	a := <-sink.ch
	if a.Important {
		t.Error("announcements must be routine")
	}
}
