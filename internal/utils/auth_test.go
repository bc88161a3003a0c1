package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"
	at, err := NewAccessToken(secret, 42, "CUSTOMER", 15)
	require.NoError(t, err)
	assert.True(t, at.Exp.After(time.Now()))

	parsed, err := jwt.Parse(at.Token, func(tok *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "CUSTOMER", claims["role"])
}

func TestAccessTokenWrongSecret(t *testing.T) {
	at, err := NewAccessToken("right-secret", 42, "CUSTOMER", 15)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(tok *jwt.Token) (any, error) {
		return []byte("wrong-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	assert.Error(t, err)
}

func TestRefreshTokenHashing(t *testing.T) {
	rt, err := NewRefreshToken(30)
	require.NoError(t, err)
	// 48 random bytes hex-encoded.
	assert.Len(t, rt.Raw, 96)
	assert.True(t, rt.Exp.After(time.Now().Add(29*24*time.Hour)))

	h1 := HashRefreshRaw(rt.Raw)
	h2 := HashRefreshRaw(rt.Raw)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashRefreshRaw(rt.Raw+"x"))

	other, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.NotEqual(t, rt.Raw, other.Raw)
}

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, VerifyPassword(hash, "wrong-pass"))
}
