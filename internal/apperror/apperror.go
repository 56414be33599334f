package apperror

import (
	"errors"
	"fmt"
)

// Сентинельные ошибки для классификации. Хендлеры сопоставляют их с HTTP статусами.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidState       = errors.New("invalid state")
	ErrExternalDependency = errors.New("external dependency failure")
)

// AppError несет классифицированную ошибку вместе с сообщением для клиента.
type AppError struct {
	Err     error  // сентинельная ошибка (вид)
	Message string // человекочитаемое сообщение
	Field   string // опционально: поле, вызвавшее ошибку
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Kind возвращает строковый код вида ошибки для JSON ответов.
func (e *AppError) Kind() string {
	switch {
	case errors.Is(e.Err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(e.Err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(e.Err, ErrForbidden):
		return "forbidden"
	case errors.Is(e.Err, ErrNotFound):
		return "not_found"
	case errors.Is(e.Err, ErrConflict):
		return "conflict"
	case errors.Is(e.Err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(e.Err, ErrExternalDependency):
		return "external_dependency_failure"
	default:
		return "internal"
	}
}

func InvalidInput(field, message string) *AppError {
	return &AppError{Err: ErrInvalidInput, Message: message, Field: field}
}

func Unauthenticated(message string) *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}

func InvalidState(message string) *AppError {
	return &AppError{Err: ErrInvalidState, Message: message}
}

func ExternalDependency(message string, err error) *AppError {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return &AppError{Err: ErrExternalDependency, Message: message}
}
