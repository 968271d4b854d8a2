// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-orchestrator/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderConfig holds settings for the research-agent provider.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the provider backend root (e.g. "http://localhost:8000").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// CallTimeout bounds all per-agent calls of one query together (default 30s).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`

	// MaxAttempts is the number of tries per agent call before giving up (default 1).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RetryBaseDelay is the first backoff delay; it doubles each attempt.
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
}

// StoreConfig selects and locates the datastore.
type StoreConfig struct {
	// Driver is "sqlite3" or "postgres".
	Driver string `json:"driver" yaml:"driver"`

	// DSN is the data source name: a file path for sqlite3, a URL for postgres.
	DSN string `json:"dsn" yaml:"dsn"`

	// MaxOpenConns caps the connection pool (0 = database/sql default).
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`
}

// EventsConfig configures progress event publishing.
type EventsConfig struct {
	// NATSURL enables the NATS publisher when non-empty.
	NATSURL string `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`

	// SubjectPrefix is prepended to the user id (default "research.progress").
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `json:"format" yaml:"format"`
}

// Config groups all component configurations.
type Config struct {
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Events   EventsConfig   `json:"events" yaml:"events"`
	Log      LogConfig      `json:"log" yaml:"log"`

	// AgentCatalog is an optional YAML file replacing the built-in agent catalog.
	AgentCatalog string `json:"agent_catalog,omitempty" yaml:"agent_catalog,omitempty"`

	// CacheSize is the number of recent queries mirrored per user (default 10).
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}
