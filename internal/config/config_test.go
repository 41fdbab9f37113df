package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4941", c.Server.Port)
	assert.Equal(t, "postgres", c.Database.Driver)
	assert.Equal(t, 64, c.Cache.Size)
	assert.Equal(t, 300, c.Cache.TTLSeconds)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PETITION_SERVER_PORT", "9000")
	t.Setenv("PETITION_DATABASE_DRIVER", "sqlite")
	t.Setenv("PETITION_DATABASE_DSN", "file:test.db")
	t.Setenv("PETITION_JWT_SECRET", "s3cret")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", c.Server.Port)
	assert.Equal(t, "sqlite", c.Database.Driver)
	assert.Equal(t, "file:test.db", c.Database.DSN)
	assert.Equal(t, "s3cret", c.JWT.Secret)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("PETITION_DATABASE_DRIVER", "mysql")

	_, err := Load()
	assert.Error(t, err)
}

func TestDefaultSecrets(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"jwt.secret", "server.session_secret"}, c.DefaultSecrets())

	t.Setenv("PETITION_JWT_SECRET", "s3cret")
	t.Setenv("PETITION_SERVER_SESSION_SECRET", "cookie-s3cret")
	c, err = Load()
	require.NoError(t, err)
	assert.Empty(t, c.DefaultSecrets())
}

func TestDefaultSecrets_DebugMode(t *testing.T) {
	t.Setenv("PETITION_SERVER_MODE", "debug")

	c, err := Load()
	require.NoError(t, err)
	assert.Empty(t, c.DefaultSecrets())
}
