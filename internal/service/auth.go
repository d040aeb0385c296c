package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/Skotchmaster/brewhaven/internal/hash"
	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/pkg/tokens"
)

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthService logs in the single demo account and resolves bearer tokens to
// user ids.
type AuthService struct {
	secret       []byte
	ttl          time.Duration
	username     string
	passwordHash string
	now          func() time.Time
}

func NewAuthService(secret []byte, ttl time.Duration, username, password string) (*AuthService, error) {
	h, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	return &AuthService{
		secret:       secret,
		ttl:          ttl,
		username:     username,
		passwordHash: h,
		now:          time.Now,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*Token, error) {
	l := logging.FromContext(ctx).With("service", "auth")

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := hash.CheckPassword(s.passwordHash, password)
	if !userOK || !passOK {
		l.Warn("login_failed", "username", username)
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	return s.IssueToken(username)
}

// IssueToken mints a token for userID without checking credentials.
func (s *AuthService) IssueToken(userID string) (*Token, error) {
	now := s.now()
	tok, err := tokens.IssueAccessToken(userID, s.secret, s.ttl, now)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{AccessToken: tok, TokenType: "bearer", ExpiresAt: now.Add(s.ttl).UTC()}, nil
}

// Resolve returns the user id carried by token.
func (s *AuthService) Resolve(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	claims, err := tokens.AccessClaimsFromToken(token, s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims.Subject, nil
}
