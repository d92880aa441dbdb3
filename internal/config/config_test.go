package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"fit_threshold": 75,
		"cache_ttl": "12h",
		"retry_delay": 1.5,
		"max_bullets_per_role": 4,
		"cache_backend": "redis",
		"redis_addr": "localhost:6379"
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 75, cfg.FitThreshold)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL.Std())
	assert.Equal(t, 1500*time.Millisecond, cfg.RetryDelay.Std())
	assert.Equal(t, 4, cfg.MaxBulletsPerRole)
	assert.Equal(t, CacheBackendRedis, cfg.CacheBackend)
}

func TestLoadConfig_ZeroTemperatureKept(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{"generation_temperature": 0}`))
	require.NoError(t, err)

	merged := cfg.MergeWithDefaults(Defaults())
	require.NotNil(t, merged.GenerationTemperature)
	assert.Equal(t, float32(0), *merged.GenerationTemperature)
	require.NoError(t, merged.Validate())
}

func TestMergeWithDefaults_TemperatureUnset(t *testing.T) {
	merged := (&Config{}).MergeWithDefaults(Defaults())
	require.NotNil(t, merged.GenerationTemperature)
	assert.InDelta(t, 0.3, *merged.GenerationTemperature, 0.0001)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{ invalid json }`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `{"cache_ttl": "a day"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 80, cfg.FitThreshold)
	assert.Equal(t, 100, cfg.MinJobDescriptionChars)
	assert.Equal(t, 20000, cfg.MaxJobDescriptionChars)
	assert.Equal(t, 20, cfg.MinJobDescriptionWords)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL.Std())
	assert.Equal(t, 6, cfg.MaxBulletsPerRole)
	assert.Equal(t, 179.0, cfg.MaxVisualWidth)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay.Std())
	assert.Equal(t, 60*time.Second, cfg.LLMCallTimeout.Std())
	assert.Equal(t, "exact", cfg.DefaultMatchMode)
}

func TestMergeWithDefaults(t *testing.T) {
	file := Config{FitThreshold: 70, CacheBackend: CacheBackendPostgres}

	merged := file.MergeWithDefaults(Defaults())

	assert.Equal(t, 70, merged.FitThreshold)
	assert.Equal(t, CacheBackendPostgres, merged.CacheBackend)
	assert.Equal(t, 6, merged.MaxBulletsPerRole)
	assert.Equal(t, 24*time.Hour, merged.CacheTTL.Std())
	assert.Equal(t, "exact", merged.DefaultMatchMode)
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"GEMINI_API_KEY":         "key",
		"DATABASE_URL":           "postgres://localhost/jobfit",
		"FIT_THRESHOLD":          "65",
		"CACHE_TTL":              "30m",
		"RETRY_ATTEMPTS":         " 5 ",
		"LOG_FORMAT":             "json",
		"GENERATION_TEMPERATURE": "0",
	}))
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "postgres://localhost/jobfit", cfg.DatabaseURL)
	assert.Equal(t, 65, cfg.FitThreshold)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL.Std())
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, "json", cfg.LogFormat)
	require.NotNil(t, cfg.GenerationTemperature)
	assert.Equal(t, float32(0), *cfg.GenerationTemperature)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad int", map[string]string{"FIT_THRESHOLD": "high"}, "invalid FIT_THRESHOLD"},
		{"bad duration", map[string]string{"RETRY_DELAY": "2"}, "invalid RETRY_DELAY"},
		{"bad temperature", map[string]string{"GENERATION_TEMPERATURE": "warm"}, "invalid GENERATION_TEMPERATURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			err := cfg.ApplyEnv(envMap(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"threshold above 100", func(c *Config) { c.FitThreshold = 101 }, "fit_threshold"},
		{"max below min", func(c *Config) { c.MaxJobDescriptionChars = 50 }, "max_job_description_chars"},
		{"no bullets", func(c *Config) { c.MaxBulletsPerRole = 0 }, "max_bullets_per_role"},
		{"zero retries", func(c *Config) { c.RetryAttempts = 0 }, "retry_attempts"},
		{"temperature too high", func(c *Config) { c.GenerationTemperature = float32Ptr(2.5) }, "generation_temperature"},
		{"unknown match mode", func(c *Config) { c.DefaultMatchMode = "fuzzy" }, "default_match_mode"},
		{"postgres without url", func(c *Config) { c.CacheBackend = CacheBackendPostgres }, "DATABASE_URL"},
		{"redis without addr", func(c *Config) { c.CacheBackend = CacheBackendRedis }, "REDIS_ADDR"},
		{"unknown backend", func(c *Config) { c.CacheBackend = "memcached" }, "unknown cache backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `{"fit_threshold": 70, "max_bullets_per_role": 4}`)
	t.Setenv("FIT_THRESHOLD", "90")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.FitThreshold, "environment wins over the file")
	assert.Equal(t, 4, cfg.MaxBulletsPerRole)
	assert.Equal(t, 3, cfg.RetryAttempts)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults().MaxBulletsPerRole, cfg.MaxBulletsPerRole)
}

func TestDuration_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(data))
}
