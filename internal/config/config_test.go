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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  env: dev
postgres:
  dsn: postgres://localhost/rollflow
realtime:
  push_timeout: 2s
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, "postgres://localhost/rollflow", c.Postgres.DSN)
	assert.Equal(t, 2*time.Second, c.Realtime.PushTimeout)
	assert.Equal(t, 25*time.Second, c.Realtime.Heartbeat)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, int32(10), c.Postgres.MaxConns)
	assert.Equal(t, "rollflow", c.NATS.SubjectPrefix)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "postgres:\n  dsn: postgres://file\n")
	t.Setenv("APP_POSTGRES_DSN", "postgres://env")
	t.Setenv("APP_HTTP_ADDR", ":9090")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", c.Postgres.DSN)
	assert.Equal(t, ":9090", c.HTTP.Addr)
}

func TestValidate(t *testing.T) {
	_, err := Load(writeConfig(t, "app:\n  env: dev\n"))
	assert.ErrorContains(t, err, "postgres.dsn")

	_, err = Load(writeConfig(t, "postgres:\n  dsn: x\nrealtime:\n  push_timeout: 0s\n"))
	assert.ErrorContains(t, err, "push_timeout")

	_, err = Load(writeConfig(t, "postgres:\n  dsn: x\ntelegram:\n  token: abc\n"))
	assert.ErrorContains(t, err, "admin_chat_id")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
