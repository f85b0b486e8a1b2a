package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spawnwatch/spawnwatch/pkg/notify"
)

var (
	// CatalogVersion tracks the monotonic catalog version
	CatalogVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spawnwatch_catalog_version",
			Help: "Current catalog version counter",
		},
	)

	// CatalogEvents tracks the number of events in the catalog
	CatalogEvents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spawnwatch_catalog_events",
			Help: "Number of events in the catalog",
		},
	)

	// ActiveEvents tracks how many events are inside the active window
	ActiveEvents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spawnwatch_active_events",
			Help: "Events currently inside the active window",
		},
	)

	// FollowedEvents tracks the size of the followed set
	FollowedEvents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spawnwatch_followed_events",
			Help: "Events the user currently follows",
		},
	)

	// BoardRefreshTotal tracks board recomputations
	BoardRefreshTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spawnwatch_board_refresh_total",
			Help: "Total number of board recomputations",
		},
	)

	// AlertsTotal tracks delivered alerts by importance
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spawnwatch_alerts_total",
			Help: "Total number of alerts delivered",
		},
		[]string{"importance"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(CatalogVersion)
	prometheus.MustRegister(CatalogEvents)
	prometheus.MustRegister(ActiveEvents)
	prometheus.MustRegister(FollowedEvents)
	prometheus.MustRegister(BoardRefreshTotal)
	prometheus.MustRegister(AlertsTotal)
}

// MeteredSink counts alerts as they pass through to the next sink.
type MeteredSink struct {
	Next notify.Sink
}

func (s MeteredSink) Deliver(a notify.Alert) {
	importance := "routine"
	if a.Important {
		importance = "important"
	}
	AlertsTotal.WithLabelValues(importance).Inc()
	s.Next.Deliver(a)
}
