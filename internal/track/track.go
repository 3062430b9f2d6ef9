// Package track is the observability collaborator: request lifecycle
// bookkeeping, structured completion logs, and an optional on-disk request
// log. It sits outside the core's control flow — the dispatch layer hands
// it lifecycle records and never reads anything back.
package track

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	bearerTokenPattern = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9\-._~+/]+=*`)
	keyValuePattern    = regexp.MustCompile(`(?i)\b(api_key|token|secret|password|authorization)\s*[:=]\s*([^\s,;]+)`)
)

// Options configure the sink. They come from the environment only; none of
// them carries decision logic for the core.
type Options struct {
	LogLevel         string
	TrackRequests    bool
	TrackPerformance bool
	SanitizeLogs     bool
	MaxLogLength     int
	RequestLogDB     string
}

func OptionsFromEnv() Options {
	return Options{
		LogLevel:         strings.ToLower(strings.TrimSpace(envOrDefault("STRAPI_MCP_LOG_LEVEL", "info"))),
		TrackRequests:    envBool("STRAPI_MCP_TRACK_REQUESTS", true),
		TrackPerformance: envBool("STRAPI_MCP_TRACK_PERFORMANCE", false),
		SanitizeLogs:     envBool("STRAPI_MCP_SANITIZE_LOGS", true),
		MaxLogLength:     envInt("STRAPI_MCP_MAX_LOG_LENGTH", 2000),
		RequestLogDB:     strings.TrimSpace(os.Getenv("STRAPI_MCP_REQUEST_LOG_DB")),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		switch strings.ToLower(value) {
		case "yes", "on":
			return true
		case "no", "off":
			return false
		default:
			return defaultVal
		}
	}
	return parsed
}

func envInt(key string, defaultVal int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return defaultVal
	}
	return parsed
}

// Lifecycle is one call's instrumentation record. The core creates the id
// and timestamps; nothing outlives the completion log entry unless the
// optional request log is enabled.
type Lifecycle struct {
	ID        string
	Tool      string
	Server    string
	StartedAt time.Time
	EndedAt   time.Time
	Outcome   string
}

// Tracker owns the in-flight map and the completion sink. Handlers run on
// separate goroutines, so the map is mutex-guarded; each call owns a unique
// key, there is no cross-call contention beyond the lock itself.
type Tracker struct {
	logger zerolog.Logger
	opts   Options
	store  *Store

	mu     sync.Mutex
	active map[string]Lifecycle
}

func New(logger zerolog.Logger, opts Options) (*Tracker, error) {
	t := &Tracker{
		logger: logger.With().Str("component", "track").Logger(),
		opts:   opts,
		active: map[string]Lifecycle{},
	}
	if opts.TrackRequests && opts.RequestLogDB != "" {
		store, err := OpenStore(opts.RequestLogDB)
		if err != nil {
			return nil, err
		}
		t.store = store
	}
	return t, nil
}

func (t *Tracker) Close() error {
	if t.store != nil {
		return t.store.Close()
	}
	return nil
}

// Begin registers a new in-flight call and returns its lifecycle record.
func (t *Tracker) Begin(tool, server string) Lifecycle {
	lc := Lifecycle{
		ID:        uuid.NewString(),
		Tool:      tool,
		Server:    server,
		StartedAt: time.Now().UTC(),
	}
	if !t.opts.TrackRequests {
		return lc
	}
	t.mu.Lock()
	t.active[lc.ID] = lc
	t.mu.Unlock()
	return lc
}

// End finalizes a lifecycle: removes it from the in-flight map, emits one
// completion entry, and appends to the request log when enabled.
func (t *Tracker) End(lc Lifecycle, outcomeKind string) {
	lc.EndedAt = time.Now().UTC()
	lc.Outcome = outcomeKind
	if !t.opts.TrackRequests {
		return
	}

	t.mu.Lock()
	delete(t.active, lc.ID)
	t.mu.Unlock()

	entry := t.logger.Info().
		Str("event", "tool_call.completed").
		Str("request_id", lc.ID).
		Str("tool", lc.Tool).
		Str("outcome", lc.Outcome)
	if lc.Server != "" {
		entry = entry.Str("server", lc.Server)
	}
	if t.opts.TrackPerformance {
		entry = entry.Int64("duration_ms", lc.EndedAt.Sub(lc.StartedAt).Milliseconds())
	}
	entry.Msg("tool call completed")

	if t.store != nil {
		if err := t.store.Insert(lc); err != nil {
			t.logger.Warn().Err(err).Msg("failed to append request log")
		}
	}
}

// ActiveCount reports how many calls are currently in flight.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Sanitize redacts obvious secrets from free text and truncates it to the
// configured maximum length before it reaches the sink.
func (t *Tracker) Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	if t.opts.SanitizeLogs {
		text = bearerTokenPattern.ReplaceAllString(text, "Bearer [REDACTED]")
		text = keyValuePattern.ReplaceAllString(text, "$1=[REDACTED]")
	}
	if t.opts.MaxLogLength > 0 && len(text) > t.opts.MaxLogLength {
		text = text[:t.opts.MaxLogLength] + "…"
	}
	return text
}
