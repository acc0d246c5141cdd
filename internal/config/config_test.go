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

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
dsn: postgres://u:p@localhost:5432/gallery?sslmode=disable
http:
  admin_key: admin
tokens:
  secret: token-secret
cursor:
  secret: cursor-secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 2*time.Hour, cfg.Tokens.ViewTTL)
	assert.Equal(t, 24*time.Hour, cfg.Tokens.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Tokens.EditorTTL)
	assert.Equal(t, "bcrypt", cfg.Credentials.Hasher)
	assert.Equal(t, int64(5), cfg.Credentials.PinMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Credentials.PinWindow)
	assert.Equal(t, "local", cfg.Assets.Driver)
	assert.Equal(t, 4, cfg.Cleanup.Concurrency)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
env: prod
dsn: postgres://from-file
http:
  admin_key: admin
tokens:
  secret: token-secret
  view_ttl: 30m
cursor:
  secret: cursor-secret
`)

	t.Setenv("DSN", "postgres://from-env")
	t.Setenv("S3_BUCKET", "photos")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "postgres://from-env", cfg.DSN)
	assert.Equal(t, "photos", cfg.Assets.S3.Bucket)
	assert.Equal(t, 30*time.Minute, cfg.Tokens.ViewTTL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var pathErr *PathError
	assert.ErrorAs(t, err, &pathErr)

	path := writeConfig(t, "env: local\n")
	_, err = Load(path)
	assert.Error(t, err)
}
