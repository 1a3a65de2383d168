// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelTrace logs everything, including per-page payload sizes.
	LevelTrace LogLevel = "trace"

	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Field names shared by all components.
const (
	FieldComponent  = "component"
	FieldEndpoint   = "endpoint"
	FieldStatus     = "status"
	FieldErrorClass = "error_class"
	FieldErrorKind  = "error_kind"
	FieldPage       = "page"
	FieldPerPage    = "per_page"
)

// Setup configures the global zerolog logger and returns it. A nil Output writes
// to stderr.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// Request adds the fields describing one Strava request to a log event.
func Request(e *zerolog.Event, endpoint string, page, perPage int) *zerolog.Event {
	e = e.Str(FieldEndpoint, endpoint)
	if page > 0 {
		e = e.Int(FieldPage, page)
	}
	if perPage > 0 {
		e = e.Int(FieldPerPage, perPage)
	}
	return e
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str(FieldComponent, component).Logger()
}

// FromEnv builds a configuration from STRAVA_LOG_LEVEL and STRAVA_LOG_PRETTY.
func FromEnv() Config {
	cfg := DefaultConfig()
	if level := os.Getenv("STRAVA_LOG_LEVEL"); level != "" {
		cfg.Level = LogLevel(level)
	}
	if pretty, err := strconv.ParseBool(os.Getenv("STRAVA_LOG_PRETTY")); err == nil {
		cfg.Pretty = pretty
	}
	return cfg
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Request flow (endpoint, method, page, per_page)
//   - Credential cache hits, misses and scope mismatches
//   - Leaderboard page splits and absent resources (404)
//
// Info: Normal operation events
//   - Drain progress on long collections
//   - Credential deauthorization
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Rate limit usage above the warning threshold
//   - Polling gave up with the resource still processing
//   - Failed 4xx/5xx requests
//   - Redis publish errors (local sample still recorded)
//
// Error: Error conditions requiring attention
//   - Network failures
//   - Configuration errors
//
// Context Fields:
//   - component: Emitting component (strava-client, strava-proxy, ...)
//   - endpoint: Strava endpoint path
//   - status: HTTP status code
//   - error_class: Error classification (client, server, rate_limit, network)
//   - error_kind: Error kind (not_found, not_authorized, other)
//   - page, per_page: Remote page being fetched
//   - segment_id, athlete_id: Resources involved
//   - window: Rate limit window (short, daily)
//   - principal, scopes: Credential cache key and granted scopes
