package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit applied to one route.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (a trailing "/" matches by prefix)
	Method string        // HTTP method
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns limits suitable for a single API instance
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// LoadConfig builds the configuration from RATE_LIMIT_* variables looked up with getenv.
func LoadConfig(getenv func(string) string) *Config {
	if !envBool(getenv, "RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	cfg := DefaultConfig()
	cfg.DefaultLimit = envInt(getenv, "RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = envDuration(getenv, "RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = envDuration(getenv, "RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Whitelist = parseIPList(getenv("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseIPList(getenv("RATE_LIMIT_BLACKLIST"))

	// Analyses call the completion service twice, so they get their own tier.
	analysesLimit := envInt(getenv, "RATE_LIMIT_ANALYSES_LIMIT", 0)
	analysesWindow := envDuration(getenv, "RATE_LIMIT_ANALYSES_WINDOW", 0)
	for i := range cfg.EndpointConfigs {
		ep := &cfg.EndpointConfigs[i]
		if ep.Path != "/analyses" {
			continue
		}
		if analysesLimit > 0 {
			ep.Limit = analysesLimit
		}
		if analysesWindow > 0 {
			ep.Window = analysesWindow
		}
	}
	return cfg
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: pipeline runs (strictest limits)
		{Path: "/analyses", Method: "POST", Limit: 20, Window: time.Hour, Burst: 3},

		// Tier 2: account reads
		{Path: "/usage", Method: "GET", Limit: 120, Window: time.Minute, Burst: 20},

		// Tier 3: everything else uses the default limit
		// Tier 4: /health and /metrics are unlimited, see MatchEndpoint
	}
}

func envInt(getenv func(string) string, key string, defaultValue int) int {
	if value := strings.TrimSpace(getenv(key)); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func envBool(getenv func(string) string, key string, defaultValue bool) bool {
	if value := strings.TrimSpace(getenv(key)); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func envDuration(getenv func(string) string, key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(getenv(key)); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
