package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer(t *testing.T) {
	issuer := NewIssuer("test-secret", 7*24*time.Hour)

	t.Run("issue and verify roundtrip", func(t *testing.T) {
		token, err := issuer.Issue("user-123")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		userID, err := issuer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", userID)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := issuer.Verify("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewIssuer("other-secret", time.Hour)
		token, err := other.Issue("user-123")
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived := NewIssuer("test-secret", -time.Minute)
		token, err := shortLived.Issue("user-123")
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("token without user id", func(t *testing.T) {
		anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		token, err := anonymous.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
