package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"life_tracker/src/model"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidCredential covers missing, malformed, expired or badly signed tokens (HTTP 401)
	ErrInvalidCredential = errors.New("invalid or expired credential")
	// ErrMisconfigured means the authenticator cannot verify anything (HTTP 500)
	ErrMisconfigured = errors.New("authenticator misconfigured")
)

// Authenticator resolves a bearer credential to a stable user id
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// JWTAuthenticator verifies HS256 tokens and uses the subject claim as user id
type JWTAuthenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTAuthenticator creates an authenticator from configuration
func NewJWTAuthenticator(config model.AuthConfig) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret: []byte(config.JWTSecret),
		issuer: config.Issuer,
		now:    time.Now,
	}
}

// Authenticate verifies the token and returns its subject
func (a *JWTAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("%w: AUTH_JWT_SECRET is not set", ErrMisconfigured)
	}
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidCredential)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidCredential)
	}
	return claims.Subject, nil
}

// IssueToken signs a token for userID valid for ttl
func (a *JWTAuthenticator) IssueToken(userID string, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("%w: AUTH_JWT_SECRET is not set", ErrMisconfigured)
	}

	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}
