package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Browser BrowserConfig
	Session SessionConfig
	Scraper ScraperConfig
	Auth    AuthConfig
	Cache   CacheConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 3000
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker and most PaaS hosts).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// MaxPages caps the number of page contexts open at once.
	// 0 means no cap.
	MaxPages int // default: 10
}

// SessionConfig controls the browser session lifecycle. The same retry
// policy is used at boot and by the watchdog.
type SessionConfig struct {
	// MaxLaunchAttempts bounds launch attempts per EnsureSession call.
	// 0 means retry until the context is cancelled.
	MaxLaunchAttempts int // default: 3

	// LaunchRetryDelay is the fixed delay between launch attempts.
	LaunchRetryDelay time.Duration // default: 5s

	// WatchdogInterval is how often the watchdog checks browser liveness.
	WatchdogInterval time.Duration // default: 60s
}

// ScraperConfig controls the extraction pipeline.
type ScraperConfig struct {
	// NavigationTimeout bounds each navigation (source page and search page).
	NavigationTimeout time.Duration // default: 30s

	// BlockedResourceTypes lists resource types aborted by the request filter.
	// default: ["Stylesheet", "Font", "Image"]
	BlockedResourceTypes []string

	// AcceptLanguage is sent with every page request. Empty disables it.
	AcceptLanguage string // default: "en-IN,en;q=0.9"
}

// AuthConfig controls API key authentication on the compare routes.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	APIKeys []string
}

// CacheConfig controls the opt-in comparison cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 500
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"

	// File is an append-only log file written alongside stdout.
	// Empty disables file logging.
	File string // default: "server.log"
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   // default: true
	Path    string // default: "/metrics"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PRICECOMPARE_HOST", "0.0.0.0"),
			Port: envIntOr("PORT", 3000),
			Mode: envOr("PRICECOMPARE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("PRICECOMPARE_HEADLESS", true),
			NoSandbox:  envBoolOr("PRICECOMPARE_NO_SANDBOX", true),
			BrowserBin: os.Getenv("PRICECOMPARE_BROWSER_BIN"),
			MaxPages:   envIntOr("PRICECOMPARE_MAX_PAGES", 10),
		},
		Session: SessionConfig{
			MaxLaunchAttempts: envIntOr("PRICECOMPARE_LAUNCH_ATTEMPTS", 3),
			LaunchRetryDelay:  envDurationOr("PRICECOMPARE_LAUNCH_RETRY_DELAY", 5*time.Second),
			WatchdogInterval:  envDurationOr("PRICECOMPARE_WATCHDOG_INTERVAL", 60*time.Second),
		},
		Scraper: ScraperConfig{
			NavigationTimeout: envDurationOr("PRICECOMPARE_NAV_TIMEOUT", 30*time.Second),
			BlockedResourceTypes: envSliceOr("PRICECOMPARE_BLOCKED_RESOURCES", []string{
				"Stylesheet", "Font", "Image",
			}),
			AcceptLanguage: envOr("PRICECOMPARE_ACCEPT_LANGUAGE", "en-IN,en;q=0.9"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PRICECOMPARE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PRICECOMPARE_API_KEYS", nil),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PRICECOMPARE_CACHE_MAX_ENTRIES", 500),
		},
		Log: LogConfig{
			Level:  envOr("PRICECOMPARE_LOG_LEVEL", "info"),
			Format: envOr("PRICECOMPARE_LOG_FORMAT", "json"),
			File:   envOr("PRICECOMPARE_LOG_FILE", "server.log"),
		},
		Metrics: MetricsConfig{
			Enabled: envBoolOr("PRICECOMPARE_METRICS", true),
			Path:    envOr("PRICECOMPARE_METRICS_PATH", "/metrics"),
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
