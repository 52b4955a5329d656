package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultline/ledger/internal/auth"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func authorizedHandler(tokens *auth.TokenService) (http.Handler, *string, *string) {
	var identity, role string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = Identity(r.Context())
		role = Role(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return Authorize(tokens, testLogger())(next), &identity, &role
}

func TestAuthorize_MissingHeader(t *testing.T) {
	tokens := auth.NewTokenService("secret", time.Hour)
	handler, _, _ := authorizedHandler(tokens)

	req := httptest.NewRequest("POST", "/accounts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing credential")
}

func TestAuthorize_MalformedHeader(t *testing.T) {
	tokens := auth.NewTokenService("secret", time.Hour)
	handler, _, _ := authorizedHandler(tokens)

	for _, header := range []string{"Bearer", "Bearer ", "Basic abc", "just-a-token"} {
		req := httptest.NewRequest("POST", "/accounts", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code, "header %q", header)
	}
}

func TestAuthorize_InvalidToken(t *testing.T) {
	tokens := auth.NewTokenService("secret", time.Hour)
	handler, _, _ := authorizedHandler(tokens)

	foreign, err := auth.NewTokenService("other-secret", time.Hour).Issue("admin", auth.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credential")
}

func TestAuthorize_ValidTokenAdmitsAndPropagatesClaims(t *testing.T) {
	tokens := auth.NewTokenService("secret", time.Hour)
	handler, identity, role := authorizedHandler(tokens)

	token, err := tokens.Issue("admin", auth.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", *identity)
	assert.Equal(t, auth.RoleAdmin, *role)
}
