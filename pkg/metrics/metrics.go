// Package metrics exposes the Prometheus metrics of the Strava client.
// All metrics are defined in their respective packages (client, pagination,
// leaderboard, polling, token, ratelimit) to maintain modularity and avoid
// circular dependencies.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the Strava client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves every registered metric in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - strava_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - strava_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - strava_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Paging Metrics (pkg/pagination):
//   - strava_page_fetches_total{outcome} (Counter): Remote page fetches by outcome
//   - strava_page_items_total (Counter): Elements received from remote pages
//
// Leaderboard Metrics (pkg/leaderboard):
//   - strava_leaderboard_pages_total{split} (Counter): Leaderboard pages by neighborhood split
//
// Polling Metrics (pkg/polling):
//   - strava_polling_attempts_total (Counter): Fetches made while polling
//   - strava_polling_wait_seconds (Histogram): Waits between polling attempts
//   - strava_polling_exhausted_total (Counter): Polls that ran out of attempts
//
// Credential Metrics (pkg/token):
//   - strava_token_lookups_total{match, result} (Counter): Cache lookups (hit, miss, scope_mismatch)
//   - strava_token_revocations_total (Counter): Revoked credentials
//   - strava_token_store_errors_total{operation} (Counter): Store errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - strava_rate_limit_used{window} (Gauge): Requests used in the short / daily window
//   - strava_rate_limit_usage_percent{window} (Gauge): Usage of the window limit
//   - strava_rate_limit_warnings_total{window} (Counter): Samples above the warning threshold
//
// Example Prometheus Queries:
//
//   # Short window close to exhaustion
//   strava_rate_limit_usage_percent{window="short"} > 90
//
//   # Request Error Rate
//   rate(strava_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(strava_request_duration_seconds_bucket[5m]))
//
//   # Remote pages per drained element
//   rate(strava_page_fetches_total[5m]) / rate(strava_page_items_total[5m])
