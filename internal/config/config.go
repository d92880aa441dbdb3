// Package config provides configuration loading and validation for the CLI and the API server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Cache backends
const (
	CacheBackendMemory   = "memory"
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"
)

// Duration is a time.Duration that reads "24h"-style strings from JSON
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of seconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("invalid duration %s", string(data))
	}
	*d = Duration(time.Duration(seconds * float64(time.Second)))
	return nil
}

// MarshalJSON writes the duration in its string form
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the pipeline tunables and service endpoints.
// File values are applied over Defaults(), then environment variables win.
type Config struct {
	// Scoring and input limits
	FitThreshold           int `json:"fit_threshold,omitempty"`
	MinJobDescriptionChars int `json:"min_job_description_chars,omitempty"`
	MaxJobDescriptionChars int `json:"max_job_description_chars,omitempty"`
	MinJobDescriptionWords int `json:"min_job_description_words,omitempty"`

	// Bullet generation
	MaxBulletsPerRole     int     `json:"max_bullets_per_role,omitempty"`
	MaxVisualWidth        float64 `json:"max_visual_width,omitempty"`
	GenerationMaxTokens   int32   `json:"generation_max_tokens,omitempty"`
	GenerationTemperature *float32 `json:"generation_temperature,omitempty"`
	ExtractionMaxTokens   int32   `json:"extraction_max_tokens,omitempty"`
	DefaultMatchMode      string  `json:"default_match_mode,omitempty"`

	// Retries and timeouts
	RetryAttempts  int      `json:"retry_attempts,omitempty"`
	RetryDelay     Duration `json:"retry_delay,omitempty"`
	LLMCallTimeout Duration `json:"llm_call_timeout,omitempty"`

	// Cache
	CacheTTL     Duration `json:"cache_ttl,omitempty"`
	CacheBackend string   `json:"cache_backend,omitempty"`
	RedisAddr    string   `json:"redis_addr,omitempty"`

	// Services
	APIKey      string `json:"api_key,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`
	Port        int    `json:"port,omitempty"`

	// Logging
	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`
}

// Defaults returns the production defaults
func Defaults() Config {
	return Config{
		FitThreshold:           80,
		MinJobDescriptionChars: 100,
		MaxJobDescriptionChars: 20000,
		MinJobDescriptionWords: 20,
		MaxBulletsPerRole:      6,
		MaxVisualWidth:         179,
		GenerationMaxTokens:    4096,
		GenerationTemperature:  float32Ptr(0.3),
		ExtractionMaxTokens:    4096,
		DefaultMatchMode:       "exact",
		RetryAttempts:          3,
		RetryDelay:             Duration(2 * time.Second),
		LLMCallTimeout:         Duration(60 * time.Second),
		CacheTTL:               Duration(24 * time.Hour),
		CacheBackend:           CacheBackendMemory,
		Port:                   8080,
		LogLevel:               "info",
		LogFormat:              "text",
	}
}

// LoadConfig reads a JSON config file. Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: defaults, then the optional file at path,
// then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DefaultMatchMode == "" {
		result.DefaultMatchMode = defaults.DefaultMatchMode
	}
	if result.CacheBackend == "" {
		result.CacheBackend = defaults.CacheBackend
	}
	if result.RedisAddr == "" {
		result.RedisAddr = defaults.RedisAddr
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	// Numeric fields: use default if zero
	if result.FitThreshold == 0 {
		result.FitThreshold = defaults.FitThreshold
	}
	if result.MinJobDescriptionChars == 0 {
		result.MinJobDescriptionChars = defaults.MinJobDescriptionChars
	}
	if result.MaxJobDescriptionChars == 0 {
		result.MaxJobDescriptionChars = defaults.MaxJobDescriptionChars
	}
	if result.MinJobDescriptionWords == 0 {
		result.MinJobDescriptionWords = defaults.MinJobDescriptionWords
	}
	if result.MaxBulletsPerRole == 0 {
		result.MaxBulletsPerRole = defaults.MaxBulletsPerRole
	}
	if result.MaxVisualWidth == 0 {
		result.MaxVisualWidth = defaults.MaxVisualWidth
	}
	if result.GenerationMaxTokens == 0 {
		result.GenerationMaxTokens = defaults.GenerationMaxTokens
	}
	if result.GenerationTemperature == nil && defaults.GenerationTemperature != nil {
		result.GenerationTemperature = float32Ptr(*defaults.GenerationTemperature)
	}
	if result.ExtractionMaxTokens == 0 {
		result.ExtractionMaxTokens = defaults.ExtractionMaxTokens
	}
	if result.RetryAttempts == 0 {
		result.RetryAttempts = defaults.RetryAttempts
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Durations
	if result.RetryDelay == 0 {
		result.RetryDelay = defaults.RetryDelay
	}
	if result.LLMCallTimeout == 0 {
		result.LLMCallTimeout = defaults.LLMCallTimeout
	}
	if result.CacheTTL == 0 {
		result.CacheTTL = defaults.CacheTTL
	}

	return result
}

// ApplyEnv overrides fields from environment variables looked up with getenv
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("GEMINI_API_KEY", &c.APIKey)
	setString("DATABASE_URL", &c.DatabaseURL)
	setString("REDIS_ADDR", &c.RedisAddr)
	setString("CACHE_BACKEND", &c.CacheBackend)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_FORMAT", &c.LogFormat)
	setString("DEFAULT_MATCH_MODE", &c.DefaultMatchMode)

	ints := []struct {
		key string
		dst *int
	}{
		{"FIT_THRESHOLD", &c.FitThreshold},
		{"RETRY_ATTEMPTS", &c.RetryAttempts},
		{"MAX_BULLETS_PER_ROLE", &c.MaxBulletsPerRole},
		{"PORT", &c.Port},
	}
	for _, item := range ints {
		v := strings.TrimSpace(getenv(item.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", item.key, err)
		}
		*item.dst = n
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"CACHE_TTL", &c.CacheTTL},
		{"RETRY_DELAY", &c.RetryDelay},
		{"LLM_CALL_TIMEOUT", &c.LLMCallTimeout},
	}
	for _, item := range durations {
		v := strings.TrimSpace(getenv(item.key))
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", item.key, err)
		}
		*item.dst = Duration(d)
	}

	if v := strings.TrimSpace(getenv("GENERATION_TEMPERATURE")); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid GENERATION_TEMPERATURE: %w", err)
		}
		c.GenerationTemperature = float32Ptr(float32(t))
	}

	return nil
}

// Validate checks that the configuration has valid values.
// Service credentials are checked by the commands that need them.
func (c *Config) Validate() error {
	if c.FitThreshold < 0 || c.FitThreshold > 100 {
		return fmt.Errorf("config error: 'fit_threshold' must be between 0 and 100, got %d", c.FitThreshold)
	}
	if c.MinJobDescriptionChars < 0 || c.MinJobDescriptionWords < 0 {
		return fmt.Errorf("config error: job description minimums must be non-negative")
	}
	if c.MaxJobDescriptionChars < c.MinJobDescriptionChars {
		return fmt.Errorf("config error: 'max_job_description_chars' must be at least 'min_job_description_chars'")
	}
	if c.MaxBulletsPerRole < 1 {
		return fmt.Errorf("config error: 'max_bullets_per_role' must be positive")
	}
	if c.MaxVisualWidth <= 0 {
		return fmt.Errorf("config error: 'max_visual_width' must be positive")
	}
	if t := c.GenerationTemperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("config error: 'generation_temperature' must be between 0 and 2")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("config error: 'retry_attempts' must be at least 1")
	}
	if c.RetryDelay < 0 || c.LLMCallTimeout < 0 || c.CacheTTL < 0 {
		return fmt.Errorf("config error: durations must be non-negative")
	}
	if c.DefaultMatchMode != "exact" && c.DefaultMatchMode != "flexible" {
		return fmt.Errorf("config error: 'default_match_mode' must be exact or flexible, got %q", c.DefaultMatchMode)
	}

	switch c.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: cache backend %q requires DATABASE_URL", c.CacheBackend)
		}
	case CacheBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("config error: cache backend %q requires REDIS_ADDR", c.CacheBackend)
		}
	default:
		return fmt.Errorf("config error: unknown cache backend %q", c.CacheBackend)
	}

	return nil
}

func float32Ptr(v float32) *float32 {
	return &v
}
