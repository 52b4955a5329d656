package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator exchanges the operator credential for a signed token. The
// expected username and the bcrypt hash of the password come from
// configuration; nothing security-critical is compiled in.
type Authenticator struct {
	username     string
	passwordHash []byte
	tokens       *TokenService
}

func NewAuthenticator(username, passwordHash string, tokens *TokenService) *Authenticator {
	return &Authenticator{
		username:     username,
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
	}
}

// Login validates the presented username/password pair and issues a token on
// success. All rejection paths return ErrInvalidCredential so a caller cannot
// distinguish a wrong username from a wrong password.
func (a *Authenticator) Login(username, password string) (string, error) {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil || !usernameOK {
		return "", ErrInvalidCredential
	}

	token, err := a.tokens.Issue(username, RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}
