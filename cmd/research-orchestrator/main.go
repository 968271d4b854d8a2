// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-orchestrator CLI. It
// submits research queries to the agent backend, stores results and
// citations, and lists past queries.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-orchestrator/internal/logger"
	"github.com/pdiddy/research-orchestrator/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// log is the process logger, configured in PersistentPreRunE.
var log = logger.Discard()

// rootCmd is the base command for the research-orchestrator CLI.
var rootCmd = &cobra.Command{
	Use:   "research-orchestrator",
	Short: "Run research queries against AI research agents",
	Long: `research-orchestrator sends a research question to one or more research
agents (Crow, Falcon, Owl, Phoenix, ...), normalizes their answers into
sources, a synthesis and formatted citations, and stores the outcome.

When the agent backend is unavailable a clearly marked fallback result is
produced so every accepted query ends with a displayable answer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading .env: %w", err)
		}

		log = logger.New(logger.FromConfig(viper.GetString("log.level"), viper.GetString("log.format")))
		slog.SetDefault(log.Logger)

		s, err := secrets.Load(viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug("loaded secrets", slog.Any("keys", keys))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./research-orchestrator.yaml or ~/.config/research-orchestrator/config.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("secrets-dir", ".secrets/", "directory of credential files")
	pf.String("store-driver", "sqlite3", "datastore driver: sqlite3 or postgres")
	pf.String("store-dsn", "data/research.db", "sqlite path or postgres URL")
	pf.String("provider-url", "http://localhost:8000", "research agent backend base URL")
	pf.String("agent-catalog", "", "YAML file replacing the built-in agent catalog")
	pf.String("nats-url", "", "publish progress events to this NATS server")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	for key, flag := range map[string]string{
		"log.level":         "log-level",
		"log.format":        "log-format",
		"secrets_dir":       "secrets-dir",
		"store.driver":      "store-driver",
		"store.dsn":         "store-dsn",
		"provider.base_url": "provider-url",
		"agent_catalog":     "agent-catalog",
		"events.nats_url":   "nats-url",
		"metrics_addr":      "metrics-addr",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-orchestrator")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-orchestrator"))
		}
	}

	setDefaults()
	viper.SetEnvPrefix("RESEARCH_ORCHESTRATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
