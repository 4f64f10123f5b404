package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instainstru/internal/model"
)

func TestPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return now }

	tok, exp, err := issuer.Issue("user-1", model.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, model.RoleInstructor, claims.Role)

	t.Run("expired", func(t *testing.T) {
		issuer.now = func() time.Time { return now.Add(2 * time.Hour) }
		defer func() { issuer.now = func() time.Time { return now } }()
		_, err := issuer.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("other", time.Hour)
		other.now = issuer.now
		_, err := other.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Parse(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestHashIP(t *testing.T) {
	a := HashIP("k", "10.0.0.1")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashIP("k", "10.0.0.1"))
	assert.NotEqual(t, a, HashIP("k", "10.0.0.2"))
	assert.Empty(t, HashIP("k", ""))
}
