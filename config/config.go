package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Extraction ExtractionConfig
	Cache      CacheConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5000
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls how browser sessions are launched.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in containers).
	NoSandbox bool // default: true

	// BrowserBin is the explicit Chromium binary used by the primary
	// launch strategy. Resolved once at start-up when empty.
	BrowserBin string

	// MaxSessions caps how many browser processes may run at once.
	MaxSessions int // default: 2

	// Stealth injects anti-automation-detection JS into every session.
	Stealth bool // default: true

	// DefaultProxy is passed to the browser when set.
	DefaultProxy string

	// AcceptLanguage is sent with every page request.
	AcceptLanguage string // default: "en-US,en;q=0.9"
}

// ExtractionConfig controls navigation and field resolution.
type ExtractionConfig struct {
	// StoreURL is the store front page that contains the search box.
	StoreURL string // default: "https://store.steampowered.com/"

	// PageLoadTimeout bounds the initial navigation.
	PageLoadTimeout time.Duration // default: 15s

	// ScriptTimeout bounds every single browser call (eval, query, input).
	ScriptTimeout time.Duration // default: 15s

	// ShortWait is the wait tier for optional fields.
	ShortWait time.Duration // default: 6s

	// MidWait is the wait tier for navigation steps and primary fields.
	MidWait time.Duration // default: 10s

	// RequestTimeout caps a whole extraction request.
	RequestTimeout time.Duration // default: 150s

	// BlockedResourceTypes lists resource types the session never loads.
	// default: ["Image", "Media", "Font"]
	BlockedResourceTypes []string

	// CurrencyTag prefixes normalised prices.
	CurrencyTag string // default: "R$"

	// CompetitorLimit caps the number of similar titles reported.
	CompetitorLimit int // default: 5

	// KeywordWholeWords matches signal keywords as whole words only.
	KeywordWholeWords bool // default: false
}

// CacheConfig controls the search response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached records.
	MaxEntries int // default: 500

	// TTL is the hard expiry for cached records regardless of max_age.
	TTL time.Duration // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("GAMEFINDER_HOST", "0.0.0.0"),
			Port: envIntOr("PORT", envIntOr("GAMEFINDER_PORT", 5000)),
			Mode: envOr("GAMEFINDER_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("GAMEFINDER_HEADLESS", true),
			NoSandbox:      envBoolOr("GAMEFINDER_NO_SANDBOX", true),
			BrowserBin:     os.Getenv("GAMEFINDER_BROWSER_BIN"),
			MaxSessions:    envIntOr("GAMEFINDER_MAX_SESSIONS", 2),
			Stealth:        envBoolOr("GAMEFINDER_STEALTH", true),
			DefaultProxy:   os.Getenv("GAMEFINDER_PROXY"),
			AcceptLanguage: envOr("GAMEFINDER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
		},
		Extraction: ExtractionConfig{
			StoreURL:        envOr("GAMEFINDER_STORE_URL", "https://store.steampowered.com/"),
			PageLoadTimeout: envDurationOr("GAMEFINDER_PAGE_LOAD_TIMEOUT", 15*time.Second),
			ScriptTimeout:   envDurationOr("GAMEFINDER_SCRIPT_TIMEOUT", 15*time.Second),
			ShortWait:       envDurationOr("GAMEFINDER_SHORT_WAIT", 6*time.Second),
			MidWait:         envDurationOr("GAMEFINDER_MID_WAIT", 10*time.Second),
			RequestTimeout:  envDurationOr("GAMEFINDER_REQUEST_TIMEOUT", 150*time.Second),
			BlockedResourceTypes: envSliceOr("GAMEFINDER_BLOCKED_RESOURCES", []string{
				"Image", "Media", "Font",
			}),
			CurrencyTag:       envOr("GAMEFINDER_CURRENCY_TAG", "R$"),
			CompetitorLimit:   envIntOr("GAMEFINDER_COMPETITOR_LIMIT", 5),
			KeywordWholeWords: envBoolOr("GAMEFINDER_KEYWORD_WHOLE_WORDS", false),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("GAMEFINDER_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("GAMEFINDER_CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("GAMEFINDER_LOG_LEVEL", "info"),
			Format: envOr("GAMEFINDER_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
