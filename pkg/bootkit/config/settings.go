package config

import (
	"strconv"
	"time"
)

const (
	RouteModeHistory = "history"
	RouteModeHash    = "hash"

	defaultLocale  = "fr"
	defaultAppName = "bootkit-app"
)

// Settings is the typed view over the environment keys the bootstrap layer reads.
type Settings struct {
	AppName          string
	AppVersion       string
	DebugMode        bool
	DebugPerformance bool
	RouteMode        string
	LegacyCompat     bool
	PublicPath       string
	Locale           string
	LogLevel         string
	LogFile          string
	HTTPBaseURL      string
	HTTPTimeout      time.Duration
	AcceptNonJSON    bool
	AlertWebhookURL  string
}

type warner interface {
	Warnf(format string, a ...any)
}

// LoadSettings reads Settings from c. Malformed values fall back to their
// defaults and are reported through w.
func LoadSettings(c Config, w warner) Settings {
	s := Settings{
		AppName:          c.GetOrDefault("APP_NAME", defaultAppName),
		AppVersion:       c.GetOrDefault("APP_VERSION", "dev"),
		DebugMode:        parseBool(c, w, "DEBUG_MODE"),
		DebugPerformance: parseBool(c, w, "DEBUG_PERFORMANCE"),
		RouteMode:        RouteModeHistory,
		LegacyCompat:     parseBool(c, w, "ROUTE_LEGACY_COMPAT"),
		PublicPath:       c.GetOrDefault("PUBLIC_PATH", "/"),
		Locale:           c.GetOrDefault("APP_LOCALE", defaultLocale),
		LogLevel:         c.GetOrDefault("LOG_LEVEL", "INFO"),
		LogFile:          c.Get("LOG_FILE"),
		HTTPBaseURL:      c.Get("HTTP_BASE_URL"),
		AcceptNonJSON:    parseBool(c, w, "HTTP_ACCEPT_NON_JSON"),
		AlertWebhookURL:  c.Get("ALERT_WEBHOOK_URL"),
	}

	if c.Get("ROUTE_MODE") == RouteModeHash {
		s.RouteMode = RouteModeHash
	}

	if v := c.Get("HTTP_TIMEOUT"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			w.Warnf("invalid HTTP_TIMEOUT %q, no timeout is applied", v)
		} else {
			s.HTTPTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	// performance instrumentation only makes sense with debug output
	s.DebugPerformance = s.DebugPerformance && s.DebugMode

	return s
}

func parseBool(c Config, w warner, key string) bool {
	v := c.Get(key)
	if v == "" {
		return false
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		w.Warnf("invalid boolean %q for %s, using false", v, key)

		return false
	}

	return b
}
