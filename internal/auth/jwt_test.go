package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *JWTManager {
	return NewJWTManager(strings.Repeat("s", 32), 15*time.Minute)
}

func TestJWT_RoundTrip(t *testing.T) {
	m := testManager()

	token, err := m.GenerateAccessToken("user-123", "omar@example.com")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "omar@example.com", claims.Email)
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	m := testManager()
	other := NewJWTManager(strings.Repeat("x", 32), 15*time.Minute)

	token, err := m.GenerateAccessToken("user-123", "omar@example.com")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWT_ExpiredRejected(t *testing.T) {
	m := NewJWTManager(strings.Repeat("s", 32), -1*time.Minute)

	token, err := m.GenerateAccessToken("user-123", "omar@example.com")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWT_GarbageRejected(t *testing.T) {
	m := testManager()
	_, err := m.ValidateAccessToken("not.a.token")
	assert.Error(t, err)
}
