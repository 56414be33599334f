package handler

import (
	"log"
	"net/http"
	"time"

	"photodrive/internal/service"
)

// AuthHandler обрабатывает вход через Google и сессионные cookie.
type AuthHandler struct {
	userService *service.UserService
	frontendURL string
}

func NewAuthHandler(userService *service.UserService, frontendURL string) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		frontendURL: frontendURL,
	}
}

// GoogleLogin перенаправляет на страницу согласия Google.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.userService.LoginURL("state"), http.StatusTemporaryRedirect)
}

// GoogleCallback обменивает код авторизации на сессию.
// Успешный вход ставит cookie и возвращает пользователя с токеном,
// чтобы API-клиенты могли работать и через заголовок Authorization.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	user, token, err := h.userService.Login(r.Context(), code)
	if err != nil {
		log.Printf("Google login failed: %v", err)
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})

	// Браузерный поток возвращается на фронтенд, cookie уже стоит.
	if h.frontendURL != "" {
		http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// Logout сбрасывает сессионную cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me возвращает текущего пользователя по сессии.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
