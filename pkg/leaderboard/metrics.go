package leaderboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// leaderboardPagesTotal counts leaderboard pages by how they were split
var leaderboardPagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "strava_leaderboard_pages_total",
		Help: "Total number of leaderboard pages by split outcome",
	},
	[]string{"split"}, // "two_neighborhoods", "context", "ranked", "unattributed", "empty"
)
