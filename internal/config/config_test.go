package config

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSecret() string {
	return base64.StdEncoding.EncodeToString(make([]byte, 32))
}

func TestLoadRequiresSigningSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestLoadRejectsShortSecret(t *testing.T) {
	short := base64.StdEncoding.EncodeToString(make([]byte, 16))
	t.Setenv("AUTH_JWT_SECRET", short)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32")
}

func TestLoadRejectsNonBase64Secret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "!!! not base64 !!!")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", validSecret())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Len(t, cfg.Auth.SigningKey, 32)
	assert.Equal(t, 3600, cfg.Auth.TokenTTLSeconds)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadOverridesTTL(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", validSecret())
	t.Setenv("AUTH_TOKEN_TTL_SECONDS", "120")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Auth.TokenTTLSeconds)
}
