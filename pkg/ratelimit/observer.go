package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Header names carrying Strava's rate limit counters as "<short>,<daily>".
const (
	HeaderLimit = "X-RateLimit-Limit"
	HeaderUsage = "X-RateLimit-Usage"
)

// Prometheus metrics for rate limit observation.
var (
	rateLimitUsagePercent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "strava_rate_limit_usage_percent",
		Help: "Last observed Strava rate limit usage in percent by window",
	}, []string{"window"})

	rateLimitUsed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "strava_rate_limit_used",
		Help: "Last observed number of requests used by window",
	}, []string{"window"})

	rateLimitWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strava_rate_limit_warnings_total",
		Help: "Total number of responses whose usage exceeded the warning threshold",
	}, []string{"window"})
)

// Config holds observer configuration.
type Config struct {
	// WarnPercent is the usage percentage above which a warning is logged.
	WarnPercent float64

	// Redis, when set, receives every sample so sibling processes can read it.
	Redis *redis.Client
}

// DefaultConfig returns an observer configuration without Redis sharing.
func DefaultConfig() Config {
	return Config{
		WarnPercent: DefaultWarnPercent,
	}
}

// Observer records the most recent rate limit sample. Safe for concurrent use.
type Observer struct {
	mu     sync.RWMutex
	sample Sample
	config Config
	logger zerolog.Logger
}

// NewObserver creates a new observer.
func NewObserver(config Config, logger zerolog.Logger) *Observer {
	if config.WarnPercent <= 0 {
		config.WarnPercent = DefaultWarnPercent
	}
	return &Observer{
		config: config,
		logger: logger,
	}
}

// Sample returns the last observed sample.
func (o *Observer) Sample() Sample {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sample
}

// Observe overwrites the current sample and warns when either window is above the
// threshold. An error is only returned when publishing to Redis fails; the sample
// is recorded locally regardless.
func (o *Observer) Observe(ctx context.Context, usedShort, limitShort, usedDaily, limitDaily int) error {
	sample := Sample{
		UsedShort:  usedShort,
		LimitShort: limitShort,
		UsedDaily:  usedDaily,
		LimitDaily: limitDaily,
		ObservedAt: time.Now(),
	}

	o.mu.Lock()
	o.sample = sample
	o.mu.Unlock()

	shortPct, dailyPct := sample.ShortPercent(), sample.DailyPercent()
	rateLimitUsagePercent.WithLabelValues("short").Set(shortPct)
	rateLimitUsagePercent.WithLabelValues("daily").Set(dailyPct)
	rateLimitUsed.WithLabelValues("short").Set(float64(usedShort))
	rateLimitUsed.WithLabelValues("daily").Set(float64(usedDaily))

	o.warnIfAbove("short", usedShort, limitShort, shortPct)
	o.warnIfAbove("daily", usedDaily, limitDaily, dailyPct)

	if o.config.Redis != nil {
		if err := o.publish(ctx, sample); err != nil {
			return err
		}
	}
	return nil
}

func (o *Observer) warnIfAbove(window string, used, limit int, pct float64) {
	if pct <= o.config.WarnPercent {
		return
	}

	rateLimitWarningsTotal.WithLabelValues(window).Inc()
	o.logger.Warn().
		Str("window", window).
		Int("used", used).
		Int("limit", limit).
		Float64("usage_pct", pct).
		Float64("warn_pct", o.config.WarnPercent).
		Msg("Strava rate limit usage above warning threshold")
}

// ObserveHeaders parses the rate limit headers of a response and records them.
// Responses without the headers are ignored.
func (o *Observer) ObserveHeaders(ctx context.Context, headers http.Header) error {
	limitStr := headers.Get(HeaderLimit)
	usageStr := headers.Get(HeaderUsage)
	if limitStr == "" && usageStr == "" {
		return nil
	}

	limitShort, limitDaily, err := parsePair(limitStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
	}

	usedShort, usedDaily, err := parsePair(usageStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderUsage, err)
	}

	return o.Observe(ctx, usedShort, limitShort, usedDaily, limitDaily)
}

// parsePair parses "<short>,<daily>".
func parsePair(value string) (short, daily int, err error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected two comma separated values, got %q", value)
	}

	short, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	daily, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return short, daily, nil
}

// publish stores the sample in Redis. Keys expire with their window.
func (o *Observer) publish(ctx context.Context, sample Sample) error {
	lastUpdateJSON, err := json.Marshal(sample.ObservedAt)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	pipe := o.config.Redis.Pipeline()
	pipe.Set(ctx, RedisKeyUsedShort, sample.UsedShort, ShortWindow)
	pipe.Set(ctx, RedisKeyLimitShort, sample.LimitShort, ShortWindow)
	pipe.Set(ctx, RedisKeyUsedDaily, sample.UsedDaily, DailyWindow)
	pipe.Set(ctx, RedisKeyLimitDaily, sample.LimitDaily, DailyWindow)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, DailyWindow)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit sample in redis: %w", err)
	}
	return nil
}

// SharedSample reads the sample last published to Redis by any process.
// Without Redis it returns the local sample. Expired windows read as zero.
func (o *Observer) SharedSample(ctx context.Context) (Sample, error) {
	if o.config.Redis == nil {
		return o.Sample(), nil
	}

	var sample Sample
	fields := []struct {
		key string
		dst *int
	}{
		{RedisKeyUsedShort, &sample.UsedShort},
		{RedisKeyLimitShort, &sample.LimitShort},
		{RedisKeyUsedDaily, &sample.UsedDaily},
		{RedisKeyLimitDaily, &sample.LimitDaily},
	}
	for _, f := range fields {
		v, err := o.config.Redis.Get(ctx, f.key).Int()
		if err != nil && err != redis.Nil {
			return Sample{}, fmt.Errorf("get %s: %w", f.key, err)
		}
		*f.dst = v
	}

	lastUpdate, err := o.config.Redis.Get(ctx, RedisKeyLastUpdate).Bytes()
	if err != nil && err != redis.Nil {
		return Sample{}, fmt.Errorf("get last update: %w", err)
	}
	if len(lastUpdate) > 0 {
		if err := json.Unmarshal(lastUpdate, &sample.ObservedAt); err != nil {
			return Sample{}, fmt.Errorf("parse last update: %w", err)
		}
	}

	return sample, nil
}
