package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ADDR", "DB_DRIVER", "DATABASE_URL", "GAME_NAME", "LOG_LEVEL", "LOG_FORMAT",
		"PUBLIC_URL", "ALLOWED_ORIGINS", "WS_WRITE_TIMEOUT", "OUTBOX_SIZE",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_KEY", "BACKUP_DIR", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "leaderboard.db", cfg.DatabaseURL)
	assert.Equal(t, "Scoreboard", cfg.GameName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.WSWriteTimeout)
	assert.Equal(t, 32, cfg.OutboxSize)
	assert.Equal(t, "scoreboard:leaderboard", cfg.RedisKey)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoad_EnvAndFlagPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", ":9000")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/scores")
	t.Setenv("ALLOWED_ORIGINS", "localhost:*, example.com ,")
	t.Setenv("PUBLIC_URL", "https://party.example.com/")
	t.Setenv("OUTBOX_SIZE", "8")

	cfg, err := Load([]string{"-addr", ":7000", "-log-format", "console"})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr, "flag wins over env")
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/scores", cfg.DatabaseURL)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, []string{"localhost:*", "example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://party.example.com", cfg.PublicURL)
	assert.Equal(t, 8, cfg.OutboxSize)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"driver", "DB_DRIVER", "mysql"},
		{"duration", "WS_WRITE_TIMEOUT", "soon"},
		{"outbox", "OUTBOX_SIZE", "0"},
		{"outbox not a number", "OUTBOX_SIZE", "many"},
		{"public url", "PUBLIC_URL", "not a url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)
			_, err := Load(nil)
			assert.Error(t, err)
		})
	}
}
