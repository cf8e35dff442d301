// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// maxMemcachedTTL is the longest relative expiration memcached accepts;
// larger values are read as unix timestamps.
const maxMemcachedTTL = 30 * 24 * time.Hour

// Load reads configs/config.yaml (searched in the usual locations), merges
// config.<APP_ENVIRONMENT>.yaml over it and applies environment overrides.
// A missing base file is not an error; defaults cover every field.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// SEARCH_BASE_URL overrides search.base_url and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindKnownKeys(v)
	return v
}

// bindKnownKeys makes AutomaticEnv see keys that no config file mentions;
// viper only consults the environment for keys it already knows about.
func bindKnownKeys(v *viper.Viper) {
	for _, key := range []string{
		"app.name", "app.version", "app.environment",
		"search.base_url", "search.timeout",
		"cache.backend", "cache.ttl", "cache.local_ttl", "cache.local_max_size",
		"cache.redis.address", "cache.redis.password", "cache.redis.db",
		"cache.memcached.servers",
		"metrics.enabled", "metrics.address",
		"tracing.enabled", "tracing.jaeger_endpoint",
		"logging.level", "logging.format", "logging.output",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working
// directory, stopping at the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "rentcomps"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	// Search defaults
	if cfg.Search.BaseURL == "" {
		cfg.Search.BaseURL = "http://127.0.0.1:8081"
	}
	cfg.Search.BaseURL = strings.TrimSuffix(cfg.Search.BaseURL, "/")
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 10000
	}

	// Cache defaults
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheBackendNone
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 15 * 60 * 1000
	}
	if cfg.Cache.LocalTTL == 0 {
		cfg.Cache.LocalTTL = 5 * 60 * 1000
	}
	if cfg.Cache.LocalMaxSize == 0 {
		cfg.Cache.LocalMaxSize = 1000
	}
	if cfg.Cache.Redis.Address == "" {
		cfg.Cache.Redis.Address = "localhost:6379"
	}
	if len(cfg.Cache.Memcached.Servers) == 0 {
		cfg.Cache.Memcached.Servers = []string{"localhost:11211"}
	}

	// Metrics defaults
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.Search.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("search.base_url must be an absolute URL, got %q", cfg.Search.BaseURL)
	}

	if cfg.Search.Timeout < 0 {
		return fmt.Errorf("search.timeout must not be negative")
	}

	switch cfg.Cache.Backend {
	case CacheBackendNone, CacheBackendLocal, CacheBackendRedis, CacheBackendMemcached:
	default:
		return fmt.Errorf("cache.backend must be one of none, local, redis, memcached; got %q", cfg.Cache.Backend)
	}

	if GetDuration(cfg.Cache.TTL) < time.Second {
		return fmt.Errorf("cache.ttl must be at least 1000 ms, got %d", cfg.Cache.TTL)
	}
	if cfg.Cache.Backend == CacheBackendMemcached && GetDuration(cfg.Cache.TTL) > maxMemcachedTTL {
		return fmt.Errorf("cache.ttl must not exceed %d ms with memcached, got %d", maxMemcachedTTL.Milliseconds(), cfg.Cache.TTL)
	}

	if cfg.Tracing.Enabled && cfg.Tracing.JaegerEndpoint == "" {
		return fmt.Errorf("tracing.jaeger_endpoint is required when tracing is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
