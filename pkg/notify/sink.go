package notify

import (
	"log"
	"sync"
	"time"
)

// RoutineAutoDismiss is how long a non-important alert stays visible in a
// rendering sink before it may be discarded.
const RoutineAutoDismiss = 5 * time.Second

// Alert is a single user-facing notification. Important alerts are
// lead-window warnings and must reach the user; routine alerts are
// confirmations that may be dropped when no permissive sink is attached.
type Alert struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Important bool      `json:"important"`
	EventID   string    `json:"eventId,omitempty"`
	At        time.Time `json:"at,omitempty"`
	Delivered time.Time `json:"delivered,omitempty"`
}

// Sink receives alerts for display.
type Sink interface {
	Deliver(Alert)
}

// LogSink writes every alert to the process log. It is the fallback of last
// resort so important alerts are never silently lost.
type LogSink struct{}

func (LogSink) Deliver(a Alert) {
	level := "notice"
	if a.Important {
		level = "ALERT"
	}
	log.Printf("[%s] %s: %s", level, a.Title, a.Message)
}

// Feed retains the most recent alerts in a ring so the API and TUI can show
// a notification history.
type Feed struct {
	mu     sync.Mutex
	max    int
	alerts []Alert
	nowFn  func() time.Time
}

// NewFeed creates a feed keeping at most max alerts.
func NewFeed(max int) *Feed {
	return &Feed{max: max, nowFn: time.Now}
}

func (f *Feed) Deliver(a Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.Delivered = f.nowFn()
	f.alerts = append(f.alerts, a)
	if len(f.alerts) > f.max {
		f.alerts = f.alerts[len(f.alerts)-f.max:]
	}
}

// Recent returns the retained alerts, newest last.
func (f *Feed) Recent() []Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Alert, len(f.alerts))
	copy(out, f.alerts)
	return out
}

// Gate enforces the user's notification opt-in. When enabled, everything
// flows to Primary. When disabled, important alerts divert to Fallback and
// routine ones are dropped.
type Gate struct {
	Primary  Sink
	Fallback Sink
	Enabled  func() bool
}

func (g Gate) Deliver(a Alert) {
	if g.Enabled != nil && g.Enabled() {
		g.Primary.Deliver(a)
		return
	}
	if a.Important && g.Fallback != nil {
		g.Fallback.Deliver(a)
	}
}

// Multi fans an alert out to several sinks.
type Multi []Sink

func (m Multi) Deliver(a Alert) {
	for _, s := range m {
		s.Deliver(a)
	}
}
