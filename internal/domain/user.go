package domain

import "time"

// User представляет локальную запись пользователя.
// Создается при первом успешном входе через внешнего провайдера.
type User struct {
	ID           int64     `json:"-" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	GoogleID     *string   `json:"-" db:"google_id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Avatar       string    `json:"avatar" db:"avatar"`
	AuthProvider string    `json:"auth_provider" db:"auth_provider"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
