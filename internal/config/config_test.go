package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults fill missing keys", func(t *testing.T) {
		// Given: a file that only sets the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: loading it
		conf, err := Load(path)

		// Then: everything else falls back to defaults
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "7777", conf.SocketPort)
		assert.Equal(t, time.Second, conf.Game.AIDelay)
		assert.Zero(t, conf.Game.AISeed)
		assert.Equal(t, "Player 1", conf.Game.PlayerX)
		assert.Equal(t, "Player 2", conf.Game.PlayerO)
		assert.False(t, conf.Redis.Enabled)
		assert.Equal(t, 24*time.Hour, conf.Redis.SessionTTL)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("File values are read", func(t *testing.T) {
		// Given: a full file
		path := writeConfig(t, `
log-level: info
http-port: "8080"
socket-port: "8081"
game:
  ai-delay: 250ms
  ai-seed: 42
  player-x: Ada
  player-o: Grace
redis:
  enabled: true
  host: redis
  port: "6380"
  session-ttl: 1h
`)

		// When: loading it
		conf, err := Load(path)

		// Then: every field is populated
		require.NoError(t, err)
		assert.Equal(t, "8081", conf.SocketPort)
		assert.Equal(t, 250*time.Millisecond, conf.Game.AIDelay)
		assert.Equal(t, int64(42), conf.Game.AISeed)
		assert.Equal(t, "Ada", conf.Game.PlayerX)
		assert.Equal(t, "Grace", conf.Game.PlayerO)
		assert.True(t, conf.Redis.Enabled)
		assert.Equal(t, "redis:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, time.Hour, conf.Redis.SessionTTL)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		// Given: a file and an env override
		path := writeConfig(t, "game:\n  ai-delay: 2s\n")
		t.Setenv("GAME_AI_DELAY", "10ms")

		// When: loading it
		conf, err := Load(path)

		// Then: the env value wins
		require.NoError(t, err)
		assert.Equal(t, 10*time.Millisecond, conf.Game.AIDelay)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		require.Error(t, err)
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "absent.yml"))
		})
	})
}

func TestLoadEnv(t *testing.T) {
	// Given: only environment variables
	t.Setenv("SOCKET_PORT", "9999")
	t.Setenv("REDIS_ENABLED", "true")

	// When: loading from env
	conf, err := LoadEnv()

	// Then: env and defaults are combined
	require.NoError(t, err)
	assert.Equal(t, "9999", conf.SocketPort)
	assert.True(t, conf.Redis.Enabled)
	assert.Equal(t, "Player 1", conf.Game.PlayerX)
}
