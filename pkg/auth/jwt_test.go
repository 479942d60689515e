package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamasit07/connect4-engine/internal/config"
)

func withConfig(t *testing.T, secret string, ttl time.Duration) {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{JWTSecret: secret, TokenTTL: ttl}
	t.Cleanup(func() { config.AppConfig = prev })
}

func TestTokenRoundTrip(t *testing.T) {
	withConfig(t, "test-secret", time.Hour)

	token, expiresAt, err := GenerateAccessToken("c-1", "board-ui")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "c-1", claims.ClientID)
	assert.Equal(t, "board-ui", claims.ClientName)
}

func TestTokenRejectedWithOtherSecret(t *testing.T) {
	withConfig(t, "first", time.Hour)
	token, _, err := GenerateAccessToken("c-1", "board-ui")
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "second"
	_, err = ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	withConfig(t, "test-secret", -time.Minute)
	token, _, err := GenerateAccessToken("c-1", "board-ui")
	require.NoError(t, err)

	_, err = ValidateAccessToken(token)
	assert.Error(t, err)
}
