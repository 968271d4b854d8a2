// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key and the trimmed file
// contents are the value.
//
// Recognized keys: futurehouse-api-key, database-url, nats-url.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

// Recognized secret keys.
const (
	KeyProviderAPIKey = "futurehouse-api-key"
	KeyDatabaseURL    = "database-url"
	KeyNATSURL        = "nats-url"
)

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads all files in dir. A missing directory is not an error and yields
// an empty set. Unreadable files are logged and skipped.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", slog.String("key", name), slog.String("error", err.Error()))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// Apply fills credentials in cfg that are still empty. Values already set by
// flags, environment or config file win.
func (s Secrets) Apply(cfg *types.Config) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = s[key]
		}
	}
	fill(&cfg.Provider.APIKey, KeyProviderAPIKey)
	fill(&cfg.Events.NATSURL, KeyNATSURL)
	if cfg.Store.Driver == "postgres" {
		fill(&cfg.Store.DSN, KeyDatabaseURL)
	}
}
