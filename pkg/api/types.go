package api

import (
	"time"

	"github.com/spawnwatch/spawnwatch/pkg/catalog"
	"github.com/spawnwatch/spawnwatch/pkg/engine"
)

// API Request/Response Structs

// BoardEntry is a board row plus a render-ready countdown.
type BoardEntry struct {
	engine.Entry
	Countdown string `json:"countdown,omitempty"`
}

// BoardResponse is the ranked event board.
type BoardResponse struct {
	Now     time.Time    `json:"now"`
	Version int          `json:"version"`
	Entries []BoardEntry `json:"entries"`
}

// VersionResponse reports the catalog's mutation bookkeeping.
type VersionResponse struct {
	Version      int        `json:"version"`
	LastModified *time.Time `json:"lastModified"`
	Modified     bool       `json:"modified"`
}

// LoginRequest carries the admin secret.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse returns the session token on success.
type LoginResponse struct {
	Token string `json:"token"`
}

// PrefsResponse is the full preference state.
type PrefsResponse struct {
	Followed      []string `json:"followed"`
	Pinned        []string `json:"pinned"`
	Notifications bool     `json:"notifications"`
}

// NotificationsRequest toggles the global notifications flag.
type NotificationsRequest struct {
	Enabled bool `json:"enabled"`
}

// EventsResponse wraps a catalog listing or search result.
type EventsResponse struct {
	Events []catalog.Event `json:"events"`
}
