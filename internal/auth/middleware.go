package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "identity"

// RequireAuth проверяет сессионный токен и кладет личность в контекст запроса.
// Токен берется из cookie "token" либо из заголовка Authorization: Bearer.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "valid authentication required",
					"kind":  "unauthenticated",
				})
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext возвращает личность аутентифицированного пользователя.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// extractIdentity пробует cookie, затем заголовок: протухшая cookie не
// должна блокировать запрос с валидным Bearer-токеном.
func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	lastErr := http.ErrNoCookie
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		id, err := tokens.Validate(cookie.Value)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}

	header := r.Header.Get("Authorization")
	if token := strings.TrimPrefix(header, "Bearer "); token != header && token != "" {
		return tokens.Validate(token)
	}

	return Identity{}, lastErr
}
