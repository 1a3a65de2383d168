// Package ratelimit observes the request counters Strava reports on every response.
// Strava enforces a short (15 minute) and a daily window and reports both in the
// X-RateLimit-Limit and X-RateLimit-Usage headers. The observer records the latest
// values and warns when usage crosses a threshold; it never blocks or delays requests.
package ratelimit

import (
	"time"
)

// Redis keys for sharing the latest sample between processes.
const (
	RedisKeyUsedShort  = "strava:rate_limit:used_short"
	RedisKeyLimitShort = "strava:rate_limit:limit_short"
	RedisKeyUsedDaily  = "strava:rate_limit:used_daily"
	RedisKeyLimitDaily = "strava:rate_limit:limit_daily"
	RedisKeyLastUpdate = "strava:rate_limit:last_update"
)

// Window lengths enforced by Strava. Shared samples expire with their window.
const (
	ShortWindow = 15 * time.Minute
	DailyWindow = 24 * time.Hour
)

// DefaultWarnPercent is the usage percentage above which a warning is logged.
const DefaultWarnPercent = 90.0

// Sample is the last observed pair of rate limit counters.
type Sample struct {
	// UsedShort and LimitShort describe the 15 minute window.
	UsedShort  int `json:"used_short"`
	LimitShort int `json:"limit_short"`

	// UsedDaily and LimitDaily describe the daily window.
	UsedDaily  int `json:"used_daily"`
	LimitDaily int `json:"limit_daily"`

	// ObservedAt is when the counters were received. Zero if nothing was observed yet.
	ObservedAt time.Time `json:"observed_at"`
}

// ShortPercent returns the short window usage in percent. 0 when the limit is unknown.
func (s Sample) ShortPercent() float64 {
	return percent(s.UsedShort, s.LimitShort)
}

// DailyPercent returns the daily window usage in percent. 0 when the limit is unknown.
func (s Sample) DailyPercent() float64 {
	return percent(s.UsedDaily, s.LimitDaily)
}

// IsStale returns true if the sample is older than maxAge.
func (s Sample) IsStale(maxAge time.Duration) bool {
	return time.Since(s.ObservedAt) > maxAge
}

func percent(used, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(used) / float64(limit) * 100
}
