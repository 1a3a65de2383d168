package token

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokenLookups tracks credential lookups by match policy and result
	TokenLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_token_lookups_total",
			Help: "Total number of credential cache lookups",
		},
		[]string{"match", "result"}, // "at_least"/"exact", "hit"/"miss"/"scope_mismatch"
	)

	// TokenRevocations tracks removed credentials
	TokenRevocations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strava_token_revocations_total",
			Help: "Total number of revoked cached credentials",
		},
	)

	// StoreErrors tracks credential store operation errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_token_store_errors_total",
			Help: "Total number of credential store operation errors",
		},
		[]string{"operation"}, // "get", "put", "delete"
	)
)
