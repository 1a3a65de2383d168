package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pageFetchesTotal counts remote page fetches by outcome
	pageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_page_fetches_total",
			Help: "Total number of remote page fetches by outcome",
		},
		[]string{"outcome"}, // "ok", "not_found", "not_authorized", "error"
	)

	// pageItemsTotal counts items received from remote pages
	pageItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strava_page_items_total",
			Help: "Total number of items received from remote pages",
		},
	)
)
