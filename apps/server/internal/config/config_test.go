package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjack-lite/apps/server/internal/ledger"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.ReconnectGrace)
	assert.Equal(t, 30*time.Second, cfg.TurnTimeout)
	assert.Equal(t, 4, cfg.MaxPlayers)
	assert.Equal(t, 2, cfg.MinPlayers)
	assert.Equal(t, 5, cfg.DefaultRounds)
	assert.Equal(t, 20, cfg.ReshuffleThreshold)
	assert.Equal(t, 100, cfg.ChatHistory)
	assert.Equal(t, ledger.ModeMemory, cfg.Ledger.Mode)
	assert.Equal(t, ledger.DefaultSQLitePath, cfg.Ledger.SQLitePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("BLACKJACK_TURN_TIMEOUT", "45s")
	t.Setenv("BLACKJACK_MAX_PLAYERS", "6")
	t.Setenv("BLACKJACK_LEDGER_MODE", "SQLite")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.TurnTimeout)
	assert.Equal(t, 6, cfg.MaxPlayers)
	assert.Equal(t, ledger.ModeSQLite, cfg.Ledger.Mode)
}

func TestLoad_FlagsAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blackjackd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min-players: 3\nledger:\n  recent-limit: 7\n"), 0o600))

	v := NewViper()
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	require.NoError(t, BindFlags(v, fs))
	require.NoError(t, fs.Parse([]string{"--listen-addr=127.0.0.1:9000", "--log.format=console"}))

	cfg, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 3, cfg.MinPlayers)
	assert.Equal(t, 7, cfg.Ledger.RecentLimit)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(NewViper(), "")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"min players below two", func(c *Config) { c.MinPlayers = 1 }},
		{"max below min", func(c *Config) { c.MinPlayers = 3; c.MaxPlayers = 2 }},
		{"zero grace", func(c *Config) { c.ReconnectGrace = 0 }},
		{"zero turn timeout", func(c *Config) { c.TurnTimeout = 0 }},
		{"postgres without dsn", func(c *Config) { c.Ledger.Mode = ledger.ModePostgres }},
		{"unknown ledger", func(c *Config) { c.Ledger.Mode = "redis" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
