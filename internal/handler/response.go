package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"photodrive/internal/apperror"
	"photodrive/internal/auth"
)

// writeJSON сериализует ответ. Ошибка кодирования здесь уже не
// исправима, поэтому только логируется.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// errorBody — единый формат тела ошибки.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// writeError переводит ошибку сервисного слоя в HTTP-статус.
// Классифицированные ошибки уходят клиенту как есть, остальные
// логируются и отдаются как 500 без деталей.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		log.Printf("Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error: "internal server error",
			Kind:  "internal",
		})
		return
	}

	var status int
	switch {
	case errors.Is(appErr.Err, apperror.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(appErr.Err, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(appErr.Err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(appErr.Err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(appErr.Err, apperror.ErrConflict), errors.Is(appErr.Err, apperror.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(appErr.Err, apperror.ErrExternalDependency):
		log.Printf("External dependency failure: %v", appErr)
		status = http.StatusBadGateway
	default:
		log.Printf("Internal error: %v", appErr)
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, errorBody{
		Error: appErr.Message,
		Kind:  appErr.Kind(),
		Field: appErr.Field,
	})
}

// identity достает личность из контекста запроса. Отсутствие означает,
// что маршрут подключен без middleware авторизации.
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("authentication required"))
		return auth.Identity{}, false
	}
	return id, true
}

// decodeBody разбирает JSON-тело запроса.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, apperror.InvalidInput("body", "invalid request body"))
		return false
	}
	return true
}
