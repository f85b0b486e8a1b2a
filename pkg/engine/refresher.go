package engine

import (
	"log"
	"sync"
	"time"

	"github.com/spawnwatch/spawnwatch/pkg/catalog"
	"github.com/spawnwatch/spawnwatch/pkg/prefs"
	"github.com/spawnwatch/spawnwatch/pkg/sched"
	"github.com/spawnwatch/spawnwatch/pkg/store"
)

const (
	// RankInterval is the periodic board recompute cadence.
	RankInterval = 30 * time.Second
	// VersionPollInterval is how often the stored catalog version is
	// compared against the in-memory one to catch external writers.
	VersionPollInterval = 5 * time.Second

	rankTask    = "engine:rank"
	versionTask = "engine:version"
)

// Refresher maintains the ranked board. It recomputes on a fixed cadence,
// immediately after every catalog mutation, and re-hydrates the catalog
// when another process sharing the KV bumps the stored version.
type Refresher struct {
	catalog   *catalog.Store
	prefs     *prefs.Store
	kv        store.KV
	scheduler *sched.Scheduler

	mu    sync.RWMutex
	board []Entry
}

// NewRefresher wires a refresher over the catalog, preferences, and backing
// KV. Call Start to begin the periodic tasks.
func NewRefresher(cat *catalog.Store, prf *prefs.Store, kv store.KV, scheduler *sched.Scheduler) *Refresher {
	return &Refresher{
		catalog:   cat,
		prefs:     prf,
		kv:        kv,
		scheduler: scheduler,
	}
}

// Start computes the initial board, subscribes to catalog mutations, and
// registers the rank and version-poll tasks.
func (r *Refresher) Start() {
	r.catalog.Subscribe(r.Recompute)
	r.scheduler.Every(rankTask, RankInterval, true, r.recompute)
	r.scheduler.Every(versionTask, VersionPollInterval, false, r.pollVersion)
}

// Stop cancels the refresher's scheduler tasks.
func (r *Refresher) Stop() {
	r.scheduler.Cancel(rankTask)
	r.scheduler.Cancel(versionTask)
}

// Recompute rebuilds the board at the scheduler's current time. Preference
// mutations have no observer hook, so the API layer calls this directly
// after follow/pin changes.
func (r *Refresher) Recompute() {
	r.recompute(r.scheduler.Clock().Now())
}

// Board returns the current board snapshot: pinned entries first in pin
// order, then the remaining events ascending by next occurrence.
func (r *Refresher) Board() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.board...)
}

// Active returns the board entries currently inside the active window.
func (r *Refresher) Active() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, e := range r.board {
		if e.Active {
			out = append(out, e)
		}
	}
	return out
}

func (r *Refresher) recompute(now time.Time) {
	ranked := Rank(r.catalog.List(), now)
	pinned := r.prefs.Pinned()

	for i := range ranked {
		id := ranked[i].Event.ID
		ranked[i].Followed = r.prefs.IsFollowed(id)
		ranked[i].Event.Following = ranked[i].Followed
		ranked[i].Pinned = indexOf(pinned, id) != -1
	}

	// Pinned entries lift to the front in pin order; everything else keeps
	// its rank position.
	board := make([]Entry, 0, len(ranked))
	for _, id := range pinned {
		for _, e := range ranked {
			if e.Event.ID == id {
				board = append(board, e)
				break
			}
		}
	}
	for _, e := range ranked {
		if !e.Pinned {
			board = append(board, e)
		}
	}

	active, followed := 0, 0
	for _, e := range board {
		if e.Active {
			active++
		}
		if e.Followed {
			followed++
		}
	}
	CatalogVersion.Set(float64(r.catalog.Version()))
	CatalogEvents.Set(float64(len(board)))
	ActiveEvents.Set(float64(active))
	FollowedEvents.Set(float64(followed))
	BoardRefreshTotal.Inc()

	r.mu.Lock()
	r.board = board
	r.mu.Unlock()
}

// pollVersion compares the persisted catalog version against the in-memory
// one and re-hydrates when they diverge. Reload fires the catalog
// observers, which recompute the board.
func (r *Refresher) pollVersion(now time.Time) {
	var stored int
	if !store.GetJSON(r.kv, store.KeyVersion, &stored) {
		return
	}
	if stored != r.catalog.Version() {
		log.Printf("catalog version moved externally (%d -> %d), reloading", r.catalog.Version(), stored)
		r.catalog.Reload()
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
