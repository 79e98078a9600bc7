package config

import "time"

// Config represents the complete application configuration. Values come
// from the config file, MSGWARD_-prefixed environment variables, and flag
// bindings, merged through viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Abuse     AbuseConfig     `mapstructure:"abuse"`
	Challenge ChallengeConfig `mapstructure:"challenge"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
	Debug     DebugConfig     `mapstructure:"debug"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// AbuseConfig tunes the decision engine. Quota tables themselves are code
// constants; only the tier multiplier, the audit threshold, and an optional
// per-channel override file are configurable.
type AbuseConfig struct {
	PaidTierMultiplier int    `mapstructure:"paid_tier_multiplier"`
	AuditRiskThreshold int    `mapstructure:"audit_risk_threshold"`
	QuotasFile         string `mapstructure:"quotas_file"`
}

// ChallengeConfig configures human-proof token verification. The bypass
// token is for internal testing only and must never be set on a deployment
// taking real traffic.
type ChallengeConfig struct {
	BypassToken  string        `mapstructure:"bypass_token"`
	VerifyURL    string        `mapstructure:"verify_url"`
	VerifySecret string        `mapstructure:"verify_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles:
// - SIMPLE: Console output only, minimal configuration (CLI commands)
// - STRUCTURED: Structured sinks, correlation IDs (the serve command)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	// Enabled controls whether debug mode is active
	Enabled bool `mapstructure:"enabled"`

	// PprofEnabled controls whether pprof endpoints are exposed
	// WARNING: Only enable in development/staging environments
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}
