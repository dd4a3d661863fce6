package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundtrip(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", hash)
	require.True(t, VerifyPassword(hash, "s3cret"))
	require.False(t, VerifyPassword(hash, "wrong"))
}

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("test-secret", 42, "CUSTOMER", 15)
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)
	require.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)

	parsed, err := jwt.Parse(at.Token, func(tok *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	require.EqualValues(t, 42, claims["sub"])
	require.Equal(t, "CUSTOMER", claims["role"])
}

func TestNewAccessTokenWrongSecret(t *testing.T) {
	at, err := NewAccessToken("test-secret", 42, "CUSTOMER", 15)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(tok *jwt.Token) (any, error) {
		return []byte("other-secret"), nil
	})
	require.Error(t, err)
}

func TestRefreshTokenUniqueAndHashed(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)

	require.NotEqual(t, a.Raw, b.Raw)
	require.Len(t, a.Raw, 96) // 48 random bytes hex encoded

	// Hashing is deterministic and never the identity.
	require.Equal(t, HashTokenRaw(a.Raw), HashTokenRaw(a.Raw))
	require.NotEqual(t, a.Raw, HashTokenRaw(a.Raw))
	require.Len(t, HashTokenRaw(a.Raw), 64)
}

func TestActivationTokenExpiry(t *testing.T) {
	tok, err := NewActivationToken(24)
	require.NoError(t, err)
	require.Len(t, tok.Raw, 64)
	require.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), tok.Exp, 5*time.Second)
}
