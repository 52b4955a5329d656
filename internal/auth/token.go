// Package auth issues and verifies the bearer credentials that gate every
// ledger operation.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidCredential covers a bad login as well as an unverifiable,
	// malformed or expired token.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrMissingCredential means no bearer value was presented at all.
	ErrMissingCredential = errors.New("missing credential")
)

// RoleAdmin is the only role issued in this deployment.
const RoleAdmin = "admin"

// Claims is the signed payload of a credential.
type Claims struct {
	Identity string `json:"identity"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens with a process-wide shared
// secret. Verification is stateless: everything needed is in the signed
// payload, nothing is stored server-side.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue returns a signed token for identity valid for the configured window.
func (s *TokenService) Issue(identity, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Identity: identity,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature, structure and expiry of a token and returns
// its claims. Verification is all-or-nothing: any failure yields
// ErrInvalidCredential and no claims.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
