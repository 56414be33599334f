package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedHandler(t *testing.T, tokens *TokenService, got *Identity) http.Handler {
	t.Helper()
	return RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		*got = id
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRequireAuthCookie(t *testing.T) {
	tokens, err := NewTokenService(testSecret)
	require.NoError(t, err)
	id := Identity{UserID: "u1", Email: "user@example.com"}
	signed, err := tokens.Generate(id)
	require.NoError(t, err)

	var got Identity
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signed})
	rec := httptest.NewRecorder()
	authedHandler(t, tokens, &got).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, got)
}

func TestRequireAuthBearerOverridesBadCookie(t *testing.T) {
	tokens, err := NewTokenService(testSecret)
	require.NoError(t, err)
	id := Identity{UserID: "u2", Email: "bearer@example.com"}
	signed, err := tokens.Generate(id)
	require.NoError(t, err)

	var got Identity
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "not-a-token"})
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	authedHandler(t, tokens, &got).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, got)
}

func TestRequireAuthMissingToken(t *testing.T) {
	tokens, err := NewTokenService(testSecret)
	require.NoError(t, err)

	var got Identity
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	authedHandler(t, tokens, &got).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unauthenticated", body["kind"])
	assert.Equal(t, Identity{}, got)
}
