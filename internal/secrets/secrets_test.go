// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-orchestrator/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Secrets
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyProviderAPIKey, "  fh_abc123  \n")
				writeFile(t, dir, KeyNATSURL, "nats://localhost:4222\n")
				return dir
			},
			want: Secrets{
				KeyProviderAPIKey: "fh_abc123",
				KeyNATSURL:        "nats://localhost:4222",
			},
		},
		{
			name: "returns empty set for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Secrets{},
		},
		{
			name: "skips empty files, dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyDatabaseURL, "postgres://db")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				writeFile(t, dir, ".hidden-key", "secret")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Secrets{KeyDatabaseURL: "postgres://db"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "value123", got["good-key"])
	assert.NotContains(t, got, "bad-key")
}

func TestApply(t *testing.T) {
	s := Secrets{
		KeyProviderAPIKey: "from-file",
		KeyDatabaseURL:    "postgres://secret",
		KeyNATSURL:        "nats://secret",
	}

	t.Run("fills empty fields", func(t *testing.T) {
		cfg := types.Config{Store: types.StoreConfig{Driver: "postgres"}}
		s.Apply(&cfg)
		assert.Equal(t, "from-file", cfg.Provider.APIKey)
		assert.Equal(t, "postgres://secret", cfg.Store.DSN)
		assert.Equal(t, "nats://secret", cfg.Events.NATSURL)
	})

	t.Run("keeps configured values", func(t *testing.T) {
		cfg := types.Config{Provider: types.ProviderConfig{APIKey: "from-flag"}}
		s.Apply(&cfg)
		assert.Equal(t, "from-flag", cfg.Provider.APIKey)
	})

	t.Run("sqlite path is not replaced by database url", func(t *testing.T) {
		cfg := types.Config{Store: types.StoreConfig{Driver: "sqlite3"}}
		s.Apply(&cfg)
		assert.Empty(t, cfg.Store.DSN)
	})
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
