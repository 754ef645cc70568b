// Package config loads RecipeAtlas settings. Environment variables
// override the YAML file, which overrides the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of the settings tree
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Session    SessionConfig    `mapstructure:"session"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Recipes    RecipesConfig    `mapstructure:"recipes"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// AppConfig identifies the running service
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig tunes the HTTP listener
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	EnableCORS        bool          `mapstructure:"enable_cors"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	EnableCompression bool          `mapstructure:"enable_compression"`
}

// DatabaseConfig contains database configuration.
// Driver is either "sqlite" (Path is used) or "postgres".
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver"`
	Path               string        `mapstructure:"path"`
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Database           string        `mapstructure:"database"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	SSLMode            string        `mapstructure:"ssl_mode"`
	ReadReplicas       []string      `mapstructure:"read_replicas"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	MaxIdleConns       int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel           string        `mapstructure:"log_level"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
	AutoMigrate        bool          `mapstructure:"auto_migrate"`
}

// RedisConfig points at the redis session store
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SessionConfig contains server-side session configuration
type SessionConfig struct {
	Store         string        `mapstructure:"store"`
	CookieName    string        `mapstructure:"cookie_name"`
	Secret        string        `mapstructure:"secret"`
	TTL           time.Duration `mapstructure:"ttl"`
	Secure        bool          `mapstructure:"secure"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	BCryptCost    int           `mapstructure:"bcrypt_cost"`
}

// PaginationConfig bounds list endpoints
type PaginationConfig struct {
	DefaultPerPage int `mapstructure:"default_per_page"`
	MaxPerPage     int `mapstructure:"max_per_page"`
}

// RecipesConfig tunes recipe authoring
type RecipesConfig struct {
	SlugWithAuthor  bool `mapstructure:"slug_with_author"`
	MaxSlugAttempts int  `mapstructure:"max_slug_attempts"`
}

// MonitoringConfig switches metrics and tracing
type MonitoringConfig struct {
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	MetricsPath     string  `mapstructure:"metrics_path"`
	EnableTracing   bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
	HealthCheckPath string  `mapstructure:"health_check_path"`
}

// RateLimitConfig limits the credential endpoints per client IP
type RateLimitConfig struct {
	Enable          bool          `mapstructure:"enable"`
	RequestsPerMin  int           `mapstructure:"requests_per_min"`
	BurstSize       int           `mapstructure:"burst_size"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// EnvPrefix namespaces environment overrides: server.port is read from
// RECIPEATLAS_SERVER_PORT.
const EnvPrefix = "RECIPEATLAS"

var searchPaths = []string{".", "./config", "/etc/recipeatlas"}

// Every key needs a default, even a zero one, or viper ignores its
// environment override when unmarshalling.
var defaults = map[string]interface{}{
	"app.name":        "RecipeAtlas",
	"app.version":     "1.0.0",
	"app.environment": "development",
	"app.log_level":   "info",
	"app.log_format":  "json",
	"app.debug":       false,

	"server.host":               "0.0.0.0",
	"server.port":               8080,
	"server.read_timeout":       "15s",
	"server.write_timeout":      "15s",
	"server.idle_timeout":       "60s",
	"server.request_timeout":    "30s",
	"server.max_header_bytes":   1 << 20,
	"server.max_body_bytes":     2 << 20,
	"server.shutdown_timeout":   "30s",
	"server.enable_cors":        true,
	"server.allowed_origins":    []string{"http://localhost:3000"},
	"server.enable_compression": true,

	"database.driver":               "sqlite",
	"database.path":                 "recipeatlas.db",
	"database.host":                 "localhost",
	"database.port":                 5432,
	"database.database":             "recipeatlas",
	"database.username":             "",
	"database.password":             "",
	"database.ssl_mode":             "disable",
	"database.read_replicas":        []string{},
	"database.max_open_conns":       25,
	"database.max_idle_conns":       5,
	"database.conn_max_lifetime":    "1h",
	"database.conn_max_idle_time":   "10m",
	"database.log_level":            "warn",
	"database.slow_query_threshold": "100ms",
	"database.auto_migrate":         true,

	"redis.host":          "localhost",
	"redis.port":          6379,
	"redis.password":      "",
	"redis.database":      0,
	"redis.max_retries":   3,
	"redis.pool_size":     10,
	"redis.dial_timeout":  "5s",
	"redis.read_timeout":  "3s",
	"redis.write_timeout": "3s",

	"session.store":          "memory",
	"session.cookie_name":    "recipeatlas_session",
	"session.secret":         "",
	"session.ttl":            "720h",
	"session.secure":         false,
	"session.sweep_interval": "5m",
	"session.bcrypt_cost":    10,

	"pagination.default_per_page": 20,
	"pagination.max_per_page":     100,

	"recipes.slug_with_author":  false,
	"recipes.max_slug_attempts": 50,

	"monitoring.enable_metrics":    true,
	"monitoring.metrics_path":      "/metrics",
	"monitoring.enable_tracing":    false,
	"monitoring.otlp_endpoint":     "localhost:4318",
	"monitoring.sampling_rate":     0.1,
	"monitoring.health_check_path": "/health",

	"rate_limit.enable":           true,
	"rate_limit.requests_per_min": 30,
	"rate_limit.burst_size":       10,
	"rate_limit.cleanup_interval": "1m",
}

// Load reads configPath, or config.yaml from the search paths when empty.
// A missing default file is fine; a missing explicit file is not.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range searchPaths {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Keys lists every setting that has a default, sorted
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var problems []error
	fail := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if c.App.Name == "" {
		fail("app.name is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		fail("server.port %d is outside 1-65535", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			fail("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Database == "" {
			fail("database.database is required for postgres")
		}
	default:
		fail("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	if s := c.Session.Store; s != "memory" && s != "redis" {
		fail("session.store must be memory or redis, got %q", s)
	}
	if c.Session.Secret == "" && c.IsProduction() {
		fail("session.secret is required in production")
	}

	if c.Pagination.DefaultPerPage < 1 || c.Pagination.DefaultPerPage > c.Pagination.MaxPerPage {
		fail("pagination.default_per_page must be between 1 and pagination.max_per_page")
	}
	if c.Recipes.MaxSlugAttempts < 1 {
		fail("recipes.max_slug_attempts must be positive")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(problems...))
}

func (c *Config) IsProduction() bool  { return c.App.Environment == "production" }
func (c *Config) IsDevelopment() bool { return c.App.Environment == "development" }

// GetDSN returns the primary postgres connection string
func (c *Config) GetDSN() string {
	return c.DSNForHost(c.Database.Host)
}

// DSNForHost returns a keyword/value postgres connection string for host,
// reusing the primary's credentials. Read replicas are opened this way.
func (c *Config) DSNForHost(host string) string {
	pairs := []struct{ key, value string }{
		{"host", host},
		{"port", fmt.Sprint(c.Database.Port)},
		{"user", c.Database.Username},
		{"password", c.Database.Password},
		{"dbname", c.Database.Database},
		{"sslmode", c.Database.SSLMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quoteDSN(p.value))
	}
	return strings.Join(parts, " ")
}

func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

// GetRedisAddr returns the redis host:port address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// SessionSecret returns the signing secret, falling back to a fixed
// development value outside production.
func (c *Config) SessionSecret() []byte {
	if c.Session.Secret != "" {
		return []byte(c.Session.Secret)
	}
	return []byte("recipeatlas-development-session-secret")
}
