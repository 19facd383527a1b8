package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_AccessToken(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	id := uuid.New()

	token, err := m.GenerateAccessToken(id, "ada@example.com", "manager")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "manager", claims.Role)

	_, err = m.ValidateRefreshToken(token)
	assert.Error(t, err, "an access token is not a refresh token")
}

func TestJWTManager_RefreshToken(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	id := uuid.New()

	token, err := m.GenerateRefreshToken(id)
	require.NoError(t, err)

	got, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err, "a refresh token cannot authenticate requests")
}

func TestJWTManager_RejectsForeignSignatureAndExpiry(t *testing.T) {
	token, err := NewJWTManager("other", time.Hour, time.Hour).GenerateAccessToken(uuid.New(), "a@b.c", "admin")
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Hour, time.Hour).ValidateAccessToken(token)
	assert.Error(t, err)

	expired, err := NewJWTManager("secret", -time.Minute, time.Hour).GenerateAccessToken(uuid.New(), "a@b.c", "admin")
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Hour, time.Hour).ValidateAccessToken(expired)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
}

func TestQuotationNumber(t *testing.T) {
	assert.Equal(t, "QT-000042", QuotationNumber(42))
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	require.NoError(t, err)
	b, _ := RandomToken(32)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
