package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "/socket", cfg.HTTP.SocketPath)
	assert.Equal(t, "redis", cfg.Upstream.Driver)
	assert.Equal(t, "siteNotificationsChannel", cfg.Upstream.Channel)
	assert.Equal(t, "notificationPayloads.", cfg.Queue.KeyPrefix)
	assert.Equal(t, 600*time.Second, cfg.Queue.KeyTTL)
	assert.Equal(t, 600*time.Second, cfg.Queue.MaxAge)
	assert.Equal(t, 3*time.Second, cfg.Gate.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Clock.Interval)
	assert.Equal(t, 10*time.Second, cfg.Push.Timeout)
	assert.Equal(t, 16, cfg.Push.Concurrency)
	assert.False(t, cfg.Push.Enabled)
	assert.Equal(t, "https://android.googleapis.com/gcm/send/", cfg.Push.Prefix)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://relay@localhost/relay")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("PUSH_ENABLED", "true")
	t.Setenv("PUSH_API_KEY", "k")
	t.Setenv("GATE_TIMEOUT", "1500ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.Push.Enabled)
	assert.Equal(t, "k", cfg.Push.APIKey)
	assert.Equal(t, 1500*time.Millisecond, cfg.Gate.Timeout)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: memory
upstream:
  channel: fromFile
log:
  level: debug
`), 0o600))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "fromFile", cfg.Upstream.Channel)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"push without api key":  {"STORE_DRIVER": "memory", "PUSH_ENABLED": "true"},
		"unknown upstream":      {"STORE_DRIVER": "memory", "UPSTREAM_DRIVER": "kafka"},
		"nats without url":      {"STORE_DRIVER": "memory", "UPSTREAM_DRIVER": "nats"},
		"postgres without dsn":  {"STORE_DRIVER": "postgres", "DATABASE_URL": ""},
		"zero push concurrency": {"STORE_DRIVER": "memory", "PUSH_CONCURRENCY": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
