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
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestRead_DefaultsAndFile(t *testing.T) {
	p := writeConfig(t, `
jwt:
  secret: s
db:
  driver: sqlite
  dsn: ":memory:"
identity:
  domain: a.com
  bootstrapPassword: Secr3t!x
`)
	c, err := Read(p)
	require.NoError(t, err)

	assert.Equal(t, "a.com", c.Identity.Domain)
	assert.Equal(t, "Secr3t!x", c.Identity.BootstrapPassword)
	assert.True(t, c.Identity.SeedOnStartup)
	assert.Equal(t, 30, c.Identity.SeedTimeoutSec)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, 8080, c.App.HTTP.Port)
	assert.Equal(t, 30*time.Second, c.Identity.SeedTimeout())
	assert.Equal(t, 2*time.Hour, c.JWT.AccessTTL())
	assert.Equal(t, 48*time.Hour, c.JWT.ConfirmTTL())
	assert.Equal(t, 10*time.Second, c.App.HTTP.WriteTimeout())
	assert.NoError(t, c.Validate())
}

func TestRead_EnvOverride(t *testing.T) {
	p := writeConfig(t, `
identity:
  domain: a.com
`)
	t.Setenv("APP_IDENTITY_DOMAIN", "b.org")
	c, err := Read(p)
	require.NoError(t, err)
	assert.Equal(t, "b.org", c.Identity.Domain)
}

func TestValidate_MissingDomain(t *testing.T) {
	p := writeConfig(t, `
jwt:
  secret: s
db:
  dsn: x
`)
	c, err := Read(p)
	require.NoError(t, err)
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity.domain")
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApp_GinMode(t *testing.T) {
	assert.Equal(t, "debug", App{Env: "local"}.GinMode())
	assert.Equal(t, "test", App{Env: "TEST"}.GinMode())
	assert.Equal(t, "release", App{Env: "prod"}.GinMode())
}

func TestValidate_UnsupportedDriver(t *testing.T) {
	p := writeConfig(t, `
jwt:
  secret: s
db:
  driver: oracle
  dsn: x
identity:
  domain: a.com
`)
	c, err := Read(p)
	require.NoError(t, err)
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
	assert.NotContains(t, err.Error(), "identity.domain")
}
