package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, ":8080", cfg.AdminAddr)
	assert.Equal(t, "reset", cfg.Session.DrawPolicy)
	assert.Equal(t, 10*time.Second, cfg.Session.WriteTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Matchmaking.MaxWait)
	assert.Equal(t, "close", cfg.Matchmaking.OnTimeout)
	assert.Equal(t, "hard", cfg.Matchmaking.BotDifficulty)
	assert.Equal(t, "channel:events", cfg.Redis.Channel)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, 24*time.Hour, cfg.Admin.TokenTTL)
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
log-level: debug
listen-addr: ":6000"
session:
  draw-policy: terminate
  write-timeout: 2s
matchmaking:
  max-wait: 30s
  on-timeout: bot
  bot-difficulty: easy
roster:
  sqlite-path: /tmp/roster.db
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("LISTEN_ADDR", ":7000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "terminate", cfg.Session.DrawPolicy)
	assert.Equal(t, 2*time.Second, cfg.Session.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Matchmaking.MaxWait)
	assert.Equal(t, "bot", cfg.Matchmaking.OnTimeout)
	assert.Equal(t, "easy", cfg.Matchmaking.BotDifficulty)
	assert.Equal(t, "/tmp/roster.db", cfg.Roster.SQLitePath)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "draw policy", key: "SESSION_DRAW_POLICY", val: "replay"},
		{name: "timeout action", key: "MATCHMAKING_ON_TIMEOUT", val: "wait"},
		{name: "bot difficulty", key: "MATCHMAKING_BOT_DIFFICULTY", val: "impossible"},
		{name: "log level", key: "LOG_LEVEL", val: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)

	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "nope.yml")) })
}
