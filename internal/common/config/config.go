// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Search  SearchConfig  `mapstructure:"search"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// SearchConfig points at the remote listing search endpoint.
type SearchConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// Cache backends
const (
	CacheBackendNone      = "none"
	CacheBackendLocal     = "local"
	CacheBackendRedis     = "redis"
	CacheBackendMemcached = "memcached"
)

// CacheConfig configures the search result cache. Results are stored under
// a key derived from the serialized query string.
type CacheConfig struct {
	Backend      string          `mapstructure:"backend"`
	TTL          int             `mapstructure:"ttl"`       // milliseconds, remote layer
	LocalTTL     int             `mapstructure:"local_ttl"` // milliseconds, in-process layer
	LocalMaxSize int64           `mapstructure:"local_max_size"`
	Redis        RedisConfig     `mapstructure:"redis"`
	Memcached    MemcachedConfig `mapstructure:"memcached"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MemcachedConfig struct {
	Servers []string `mapstructure:"servers"`
}

// MetricsConfig controls the /metrics and /health listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// TracingConfig controls span export. Spans are always created; they are
// only exported when a Jaeger endpoint is configured.
type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
