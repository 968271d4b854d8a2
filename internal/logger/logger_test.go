// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	t.Setenv("APP_ENV", "")

	cfg := FromConfig("warn", "")
	assert.Equal(t, slog.LevelWarn, cfg.Level)
	assert.Equal(t, "text", cfg.Format)

	cfg = FromConfig("bogus", "json")
	assert.Equal(t, slog.LevelInfo, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}

func TestFromConfigProductionForcesJSON(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	assert.Equal(t, "json", FromConfig("info", "text").Format)
}

func TestWithContextAddsQueryFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	ctx := ContextWithQuery(context.Background(), "u1", "q1")
	log.WithContext(ctx).WithComponent("adapter").Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "q1", line["query_id"])
	assert.Equal(t, "adapter", line["component"])
	assert.Equal(t, "hello", line["msg"])
}
