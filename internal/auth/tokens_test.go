package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myquiz/backend/internal/quiz"
)

func TestTokensRoundTrip(t *testing.T) {
	clock := newFakeClock()
	tokens := NewTokens("secret", 24*time.Hour)
	tokens.now = clock.Now

	tok, err := tokens.Issue("admin@myquiz.com")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(24*time.Hour), tok.ExpiresAt)
	assert.Equal(t, "admin@myquiz.com", tok.Email)

	claims, err := tokens.Verify(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "admin@myquiz.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "admin", claims.Subject)
}

func TestTokensExpire(t *testing.T) {
	clock := newFakeClock()
	tokens := NewTokens("secret", 24*time.Hour)
	tokens.now = clock.Now

	tok, err := tokens.Issue("admin@myquiz.com")
	require.NoError(t, err)

	clock.Advance(24*time.Hour - time.Second)
	_, err = tokens.Verify(tok.Value)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = tokens.Verify(tok.Value)
	assert.ErrorIs(t, err, quiz.ErrTokenExpired)
}

func TestTokensRejectForeign(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	other := NewTokens("other-secret", time.Hour)

	tok, err := other.Issue("admin@myquiz.com")
	require.NoError(t, err)

	_, err = tokens.Verify(tok.Value)
	assert.ErrorIs(t, err, quiz.ErrUnauthenticated)

	_, err = tokens.Verify("not.a.token")
	assert.ErrorIs(t, err, quiz.ErrUnauthenticated)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "x", IsAdmin: true})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Verify(raw)
	assert.ErrorIs(t, err, quiz.ErrUnauthenticated)
}
