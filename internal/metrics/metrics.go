package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climadash_dataset_loads_total",
			Help: "Total historical dataset loads from the risk backend",
		},
		[]string{"status"},
	)

	LiveSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climadash_live_sessions_total",
			Help: "Total live analysis sessions by terminal outcome",
		},
		[]string{"outcome"},
	)

	LiveEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climadash_live_events_total",
			Help: "Total events received over live analysis subscriptions",
		},
		[]string{"type"},
	)

	GeocodeLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climadash_geocode_lookups_total",
			Help: "Total geocoding lookups",
		},
		[]string{"kind", "status"},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climadash_exports_total",
			Help: "Total user-triggered exports",
		},
		[]string{"format"},
	)
)
