// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-orchestrator/internal/adapter"
	"github.com/pdiddy/research-orchestrator/internal/cache"
	"github.com/pdiddy/research-orchestrator/internal/events"
	"github.com/pdiddy/research-orchestrator/pkg/types"
)

const defaultUserAgent = "research-orchestrator/0.1"

func setDefaults() {
	viper.SetDefault("provider.timeout", 60*time.Second)
	viper.SetDefault("provider.user_agent", defaultUserAgent)
	viper.SetDefault("provider.call_timeout", adapter.DefaultTimeout)
	viper.SetDefault("provider.max_attempts", 1)
	viper.SetDefault("provider.retry_base_delay", time.Second)
	viper.SetDefault("events.subject_prefix", events.DefaultSubjectPrefix)
	viper.SetDefault("cache_size", cache.DefaultSize)
}

// loadConfig assembles the component configuration from flags, environment,
// config file and secrets, in that order of precedence.
func loadConfig() types.Config {
	cfg := types.Config{
		Provider: types.ProviderConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("provider.timeout"),
				UserAgent: viper.GetString("provider.user_agent"),
			},
			BaseURL:        viper.GetString("provider.base_url"),
			APIKey:         viper.GetString("provider.api_key"),
			CallTimeout:    viper.GetDuration("provider.call_timeout"),
			MaxAttempts:    viper.GetInt("provider.max_attempts"),
			RetryBaseDelay: viper.GetDuration("provider.retry_base_delay"),
		},
		Store: types.StoreConfig{
			Driver:       viper.GetString("store.driver"),
			DSN:          viper.GetString("store.dsn"),
			MaxOpenConns: viper.GetInt("store.max_open_conns"),
		},
		Events: types.EventsConfig{
			NATSURL:       viper.GetString("events.nats_url"),
			SubjectPrefix: viper.GetString("events.subject_prefix"),
		},
		Log: types.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
		AgentCatalog: viper.GetString("agent_catalog"),
		CacheSize:    viper.GetInt("cache_size"),
	}
	if cfg.Store.Driver == "postgres" && !viper.IsSet("store.dsn") {
		cfg.Store.DSN = ""
	}
	loadedSecrets.Apply(&cfg)
	return cfg
}
