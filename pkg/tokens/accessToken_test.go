package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestIssueAndParse(t *testing.T) {
	tok, err := IssueAccessToken("barista", secret, time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "barista", claims.Subject)
}

func TestParse_Expired(t *testing.T) {
	tok, err := IssueAccessToken("barista", secret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := IssueAccessToken("barista", secret, time.Hour, time.Now())
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, []byte("other"))
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestParse_WrongAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "barista", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, secret)
	assert.Error(t, err)
}

func TestParse_EmptySubject(t *testing.T) {
	tok, err := IssueAccessToken("", secret, time.Hour, time.Now())
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, secret)
	assert.ErrorIs(t, err, ErrNoSubject)
}
