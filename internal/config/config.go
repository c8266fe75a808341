// Package config provides configuration management for the lab stats service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Catalog backends.
const (
	CatalogBackendFile     = "file"
	CatalogBackendPostgres = "postgres"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "LABSTATS"

// Config holds all configuration for the lab stats service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings for the catalog.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Catalog selects where researcher and project profiles come from.
	Catalog CatalogConfig `mapstructure:"catalog"`
	// Lab identifies the lab shown on the dashboard.
	Lab LabConfig `mapstructure:"lab"`
	// Sources contains bibliographic source settings.
	Sources SourcesConfig `mapstructure:"sources"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP API port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response. It must
	// exceed the upstream source timeout.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSAllowedOrigins lists origins allowed to call the API from a browser.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (loaded from LABSTATS_DATABASE_PASSWORD only).
	Password string `mapstructure:"-"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool.
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open.
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// CatalogConfig holds profile catalog settings.
type CatalogConfig struct {
	// Backend is "file" (JSON dataset exports) or "postgres".
	Backend string `mapstructure:"backend"`
	// ResearchersPath is the researchers dataset for the file backend.
	ResearchersPath string `mapstructure:"researchers_path"`
	// ProjectsPath is the projects dataset for the file backend.
	ProjectsPath string `mapstructure:"projects_path"`
}

// LabConfig identifies the lab.
type LabConfig struct {
	// Acronym is the HAL structure acronym (structAcronym_s).
	Acronym string `mapstructure:"acronym"`
	// Name is the expanded lab name, excluded from its own collaborator list.
	Name string `mapstructure:"name"`
	// FacetLimit is the number of values returned per lab facet.
	FacetLimit int `mapstructure:"facet_limit"`
}

// SourcesConfig holds configuration for the bibliographic sources.
type SourcesConfig struct {
	// HAL contains HAL search API settings.
	HAL SourceConfig `mapstructure:"hal"`
	// DBLP contains DBLP search API settings.
	DBLP SourceConfig `mapstructure:"dblp"`
}

// SourceConfig holds configuration for a single bibliographic source.
type SourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the search endpoint.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-call deadline.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxRetries is the number of retries on transient failures (default: 0).
	MaxRetries int `mapstructure:"max_retries"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and, when present,
// config.yaml in ., ./config or /etc/lab-stats-service.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is like Load but reads the given config file instead of
// searching the default locations. An empty path falls back to Load's search.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/lab-stats-service")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Database.Password = os.Getenv(EnvPrefix + "_DATABASE_PASSWORD")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "labstats")
	v.SetDefault("database.name", "lab_stats_service")
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "lab_stats")

	// Catalog defaults
	v.SetDefault("catalog.backend", CatalogBackendFile)
	v.SetDefault("catalog.researchers_path", "data/researchers.json")
	v.SetDefault("catalog.projects_path", "data/projects.json")

	// Lab defaults
	v.SetDefault("lab.acronym", "LISTIC")
	v.SetDefault("lab.name", "Laboratoire d'Informatique, Systèmes, Traitement de l'Information et de la Connaissance")
	v.SetDefault("lab.facet_limit", 20)

	// Source defaults - HAL
	v.SetDefault("sources.hal.enabled", true)
	v.SetDefault("sources.hal.base_url", "https://api.archives-ouvertes.fr/search/")
	v.SetDefault("sources.hal.timeout", "10s")
	v.SetDefault("sources.hal.rate_limit", 5.0)
	v.SetDefault("sources.hal.max_retries", 0)

	// Source defaults - DBLP
	v.SetDefault("sources.dblp.enabled", true)
	v.SetDefault("sources.dblp.base_url", "https://dblp.org/search/publ/api")
	v.SetDefault("sources.dblp.timeout", "10s")
	v.SetDefault("sources.dblp.rate_limit", 2.0)
	v.SetDefault("sources.dblp.max_retries", 0)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("metrics port must differ from HTTP port (%d)", c.Server.HTTPPort)
	}

	switch c.Catalog.Backend {
	case CatalogBackendFile:
		if c.Catalog.ResearchersPath == "" || c.Catalog.ProjectsPath == "" {
			return fmt.Errorf("catalog researchers_path and projects_path are required for the file backend")
		}
	case CatalogBackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
		}
	default:
		return fmt.Errorf("invalid catalog backend: %q", c.Catalog.Backend)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if strings.TrimSpace(c.Lab.Acronym) == "" {
		return fmt.Errorf("lab acronym is required")
	}
	if c.Lab.FacetLimit <= 0 {
		return fmt.Errorf("lab facet_limit must be positive")
	}

	for name, src := range map[string]SourceConfig{"hal": c.Sources.HAL, "dblp": c.Sources.DBLP} {
		if !src.Enabled {
			continue
		}
		if src.BaseURL == "" {
			return fmt.Errorf("sources.%s.base_url is required", name)
		}
		if src.Timeout <= 0 {
			return fmt.Errorf("sources.%s.timeout must be positive", name)
		}
		if src.RateLimit <= 0 {
			return fmt.Errorf("sources.%s.rate_limit must be positive", name)
		}
		if src.MaxRetries < 0 {
			return fmt.Errorf("sources.%s.max_retries must not be negative", name)
		}
	}

	return nil
}
