package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/strava-client/pkg/apierr"
	"github.com/Sternrassler/strava-client/pkg/client"
	"github.com/Sternrassler/strava-client/pkg/logging"
	"github.com/Sternrassler/strava-client/pkg/metrics"
	"github.com/Sternrassler/strava-client/pkg/pagination"
	"github.com/Sternrassler/strava-client/pkg/ratelimit"
	"github.com/Sternrassler/strava-client/pkg/token"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.Setup(logging.FromEnv())

	// Configuration from environment
	redisURL := getEnv("REDIS_URL", "")
	port := getEnv("PORT", "8080")
	userAgent := getEnv("USER_AGENT", "strava-client/0.1.0")

	credential, err := credentialFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid credential configuration")
	}

	warnIfUnattributed(credential, log.Logger)

	cfg := client.DefaultConfig(credential, userAgent)
	cfg.BaseURL = getEnv("STRAVA_BASE_URL", client.DefaultBaseURL)

	// Setup Redis (optional)
	var redisClient *redis.Client
	if redisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: redisURL,
		})

		ctx := context.Background()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", redisURL).Msg("Failed to connect to Redis")
		}
		log.Info().Str("addr", redisURL).Msg("Connected to Redis")

		cfg.Tokens = token.NewCache(token.NewRedisStore(redisClient, token.DefaultTTL), logging.NewLogger("token-cache"))
		cfg.RateLimit = ratelimit.NewObserver(ratelimit.Config{Redis: redisClient}, logging.NewLogger("rate-limit"))
	}

	stravaClient, err := client.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Strava client")
	}
	defer stravaClient.Close()

	addr := ":" + port
	log.Info().Str("addr", addr).Str("user_agent", userAgent).Msg("Starting Strava proxy server")

	if err := http.ListenAndServe(addr, newServer(stravaClient, redisClient)); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// credentialFromEnv reads the credential the proxy acts with.
func credentialFromEnv() (*token.Entry, error) {
	accessToken := os.Getenv("STRAVA_ACCESS_TOKEN")
	if accessToken == "" {
		return nil, fmt.Errorf("STRAVA_ACCESS_TOKEN is required")
	}

	var athleteID int64
	if v := os.Getenv("STRAVA_ATHLETE_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse STRAVA_ATHLETE_ID: %w", err)
		}
		athleteID = id
	}

	scopes, err := token.ParseScopes(getEnv("STRAVA_SCOPES", "read"))
	if err != nil {
		return nil, err
	}

	return &token.Entry{
		PrincipalKey: getEnv("STRAVA_PRINCIPAL", fmt.Sprintf("athlete-%d", athleteID)),
		AthleteID:    athleteID,
		Token:        accessToken,
		Scopes:       scopes,
	}, nil
}

// warnIfUnattributed logs a warning when the credential has no athlete id. Without
// it, leaderboard pages holding only the rows around the athlete cannot be told apart
// from short ranked pages and are dropped.
func warnIfUnattributed(credential *token.Entry, logger zerolog.Logger) bool {
	if credential.AthleteID != 0 {
		return false
	}
	logger.Warn().
		Str("principal", credential.PrincipalKey).
		Msg("STRAVA_ATHLETE_ID is not set, context-only leaderboard pages will be dropped")
	return true
}

// newServer wires the HTTP routes of the proxy.
func newServer(c *client.Client, redisClient *redis.Client) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(redisClient))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /rate-limit", rateLimitHandler(c))
	mux.HandleFunc("GET /segments/{id}/leaderboard", leaderboardHandler(c))
	mux.HandleFunc("GET /athlete/activities", activitiesHandler(c))
	mux.HandleFunc("GET /clubs/{id}/members", clubMembersHandler(c))
	mux.HandleFunc("GET /uploads/{id}", uploadHandler(c))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := redisClient.Ping(ctx).Err(); err != nil {
				http.Error(w, "Redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

func rateLimitHandler(c *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sample, err := c.RateLimit().SharedSample(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{
			"used_short":    sample.UsedShort,
			"limit_short":   sample.LimitShort,
			"used_daily":    sample.UsedDaily,
			"limit_daily":   sample.LimitDaily,
			"short_percent": sample.ShortPercent(),
			"daily_percent": sample.DailyPercent(),
			"observed_at":   sample.ObservedAt,
		})
	}
}

func leaderboardHandler(c *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segmentID, ok := pathID(w, r)
		if !ok {
			return
		}

		d, err := descriptorFromQuery(r.URL.Query())
		if err != nil {
			writeError(w, err)
			return
		}

		q, err := leaderboardQueryFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		board, err := c.SegmentLeaderboard(r.Context(), segmentID, q, d)
		if err != nil {
			writeError(w, err)
			return
		}
		if board == nil {
			http.Error(w, "leaderboard not found", http.StatusNotFound)
			return
		}
		writeJSON(w, board)
	}
}

func activitiesHandler(c *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := descriptorFromQuery(r.URL.Query())
		if err != nil {
			writeError(w, err)
			return
		}

		var before, after time.Time
		if v := r.URL.Query().Get("before"); v != "" {
			sec, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				http.Error(w, "invalid before", http.StatusBadRequest)
				return
			}
			before = time.Unix(sec, 0)
		}
		if v := r.URL.Query().Get("after"); v != "" {
			sec, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				http.Error(w, "invalid after", http.StatusBadRequest)
				return
			}
			after = time.Unix(sec, 0)
		}

		activities, err := c.AthleteActivities(r.Context(), before, after, d)
		if err != nil {
			writeError(w, err)
			return
		}
		if activities == nil {
			activities = []client.ActivitySummary{}
		}
		writeJSON(w, activities)
	}
}

func clubMembersHandler(c *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubID, ok := pathID(w, r)
		if !ok {
			return
		}

		members, err := c.ClubMembers(r.Context(), clubID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, members)
	}
}

func uploadHandler(c *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploadID, ok := pathID(w, r)
		if !ok {
			return
		}

		upload, err := c.Upload(r.Context(), uploadID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, upload)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// descriptorFromQuery builds a paging descriptor from page, per_page, ignore_first
// and ignore_last. Without page and per_page it returns nil (remote default page).
func descriptorFromQuery(q map[string][]string) (*pagination.Descriptor, error) {
	get := func(key string, def int) (int, error) {
		values := q[key]
		if len(values) == 0 || values[0] == "" {
			return def, nil
		}
		n, err := strconv.Atoi(values[0])
		if err != nil {
			return 0, apierr.New(apierr.KindInvalidDescriptor, 0, fmt.Sprintf("%s must be an integer", key))
		}
		return n, nil
	}

	if len(q["page"]) == 0 && len(q["per_page"]) == 0 {
		return nil, nil
	}

	page, err := get("page", 1)
	if err != nil {
		return nil, err
	}
	perPage, err := get("per_page", 30)
	if err != nil {
		return nil, err
	}
	first, err := get("ignore_first", 0)
	if err != nil {
		return nil, err
	}
	last, err := get("ignore_last", 0)
	if err != nil {
		return nil, err
	}

	d, err := pagination.NewTrimmedDescriptor(page, perPage, first, last)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func leaderboardQueryFromRequest(r *http.Request) (client.LeaderboardQuery, error) {
	v := r.URL.Query()
	q := client.LeaderboardQuery{
		Gender:      v.Get("gender"),
		AgeGroup:    v.Get("age_group"),
		WeightClass: v.Get("weight_class"),
		DateRange:   v.Get("date_range"),
		Following:   strings.EqualFold(v.Get("following"), "true"),
	}

	if s := v.Get("club_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return q, fmt.Errorf("invalid club_id")
		}
		q.ClubID = id
	}
	if s := v.Get("context_entries"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("invalid context_entries")
		}
		q.ContextEntries = &n
	}
	return q, nil
}

// writeError maps error kinds onto proxy status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch apierr.KindOf(err) {
	case apierr.KindNotFound:
		status = http.StatusNotFound
	case apierr.KindNotAuthorized:
		status = http.StatusForbidden
	case apierr.KindInvalidDescriptor:
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
