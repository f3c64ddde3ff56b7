package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	GIS       GISConfig       `mapstructure:"gis"`
	Solver    SolverConfig    `mapstructure:"solver"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

// GISConfig describes the hosted GIS platform the service solves against.
type GISConfig struct {
	PortalURL      string `mapstructure:"portal_url"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	Referer        string `mapstructure:"referer"`
	RequestTimeout int    `mapstructure:"request_timeout"` // seconds
	TokenTTL       int    `mapstructure:"token_ttl"`       // minutes requested from generateToken
}

// SolverConfig bounds what callers may ask of the remote solvers.
type SolverConfig struct {
	MaxBreaks          int     `mapstructure:"max_breaks"`
	MaxBreakMinutes    float64 `mapstructure:"max_break_minutes"`
	SyncFacilityLimit  int     `mapstructure:"sync_facility_limit"` // above this, allocation solves are queued
	JobPollInterval    int     `mapstructure:"job_poll_interval"`   // seconds
	JobTimeout         int     `mapstructure:"job_timeout"`         // minutes
	ResultCacheSeconds int     `mapstructure:"result_cache_seconds"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "georeach")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "georeach")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("gis.portal_url", "https://www.arcgis.com")
	v.SetDefault("gis.username", "")
	v.SetDefault("gis.password", "")
	v.SetDefault("gis.referer", "https://georeach.local")
	v.SetDefault("gis.request_timeout", 60)
	v.SetDefault("gis.token_ttl", 60)
	v.SetDefault("solver.max_breaks", 10)
	v.SetDefault("solver.max_break_minutes", 300)
	v.SetDefault("solver.sync_facility_limit", 50)
	v.SetDefault("solver.job_poll_interval", 5)
	v.SetDefault("solver.job_timeout", 30)
	v.SetDefault("solver.result_cache_seconds", 900)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GEOREACH_GIS_PORTAL_URL → gis.portal_url
	v.SetEnvPrefix("GEOREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.GIS.PortalURL == "" {
		errs = append(errs, "gis.portal_url is required")
	} else if !strings.HasPrefix(c.GIS.PortalURL, "http://") && !strings.HasPrefix(c.GIS.PortalURL, "https://") {
		errs = append(errs, "gis.portal_url must be an http(s) URL")
	}
	if c.GIS.RequestTimeout <= 0 {
		errs = append(errs, "gis.request_timeout must be positive")
	}
	if c.Solver.MaxBreaks <= 0 {
		errs = append(errs, "solver.max_breaks must be positive")
	}
	if c.Solver.JobPollInterval <= 0 {
		errs = append(errs, "solver.job_poll_interval must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
