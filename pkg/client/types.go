package client

import (
	"encoding/json"
	"time"
)

// Event mirrors the daemon's wire format for a catalog entry. The schedule
// rule stays raw so the SDK does not chase rule-kind additions.
type Event struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Location    string          `json:"map,omitempty"`
	Rewards     []string        `json:"items,omitempty"`
	Times       []time.Time     `json:"times,omitempty"`
	Rule        json.RawMessage `json:"rule,omitempty"`
	Description string          `json:"description,omitempty"`
	Following   bool            `json:"following,omitempty"`
}

// BoardEntry is one ranked board row.
type BoardEntry struct {
	Event     Event     `json:"event"`
	Next      time.Time `json:"next,omitempty"`
	Active    bool      `json:"active"`
	Upcoming  bool      `json:"upcoming"`
	Pinned    bool      `json:"pinned"`
	Followed  bool      `json:"followed"`
	Countdown string    `json:"countdown,omitempty"`
}

// Board is the ranked event board as served by the daemon.
type Board struct {
	Now     time.Time    `json:"now"`
	Version int          `json:"version"`
	Entries []BoardEntry `json:"entries"`
}

// VersionInfo reports the catalog's mutation bookkeeping.
type VersionInfo struct {
	Version      int        `json:"version"`
	LastModified *time.Time `json:"lastModified"`
	Modified     bool       `json:"modified"`
}

// Prefs is the daemon's preference state.
type Prefs struct {
	Followed      []string `json:"followed"`
	Pinned        []string `json:"pinned"`
	Notifications bool     `json:"notifications"`
}

// Alert is a delivered notification from the daemon's feed.
type Alert struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Important bool      `json:"important"`
	EventID   string    `json:"eventId,omitempty"`
	At        time.Time `json:"at,omitempty"`
	Delivered time.Time `json:"delivered,omitempty"`
}

// Status represents the health check response.
type Status struct {
	Status string `json:"status"`
}
