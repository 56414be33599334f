package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"photodrive/internal/apperror"
	"photodrive/internal/domain"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByUserID возвращает пользователя по стабильному идентификатору.
func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// FindOrCreate находит пользователя по userId, googleId или email,
// при отсутствии создает новую запись. Email хранится в нижнем регистре.
func (r *UserRepository) FindOrCreate(ctx context.Context, user *domain.User) (*domain.User, error) {
	var found domain.User
	query := `
        SELECT * FROM users
        WHERE user_id = $1
           OR google_id = $2
           OR LOWER(email) = LOWER($3)
        LIMIT 1`

	err := r.db.GetContext(ctx, &found, query, user.UserID, user.GoogleID, user.Email)
	if err == nil {
		return &found, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	insert := `
        INSERT INTO users (user_id, google_id, email, name, avatar, auth_provider)
        VALUES ($1, $2, LOWER($3), $4, $5, $6)
        RETURNING id, created_at, updated_at`

	err = r.db.QueryRowContext(
		ctx,
		insert,
		user.UserID,
		user.GoogleID,
		user.Email,
		user.Name,
		user.Avatar,
		user.AuthProvider,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		// Параллельный вход того же пользователя: перечитываем запись.
		if isUniqueViolation(err) {
			if getErr := r.db.GetContext(ctx, &found, query, user.UserID, user.GoogleID, user.Email); getErr == nil {
				return &found, nil
			}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// UpdateProfile обновляет отображаемое имя и аватар.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, name, avatar *string) (*domain.User, error) {
	query := `
        UPDATE users
        SET name = COALESCE($2, name),
            avatar = COALESCE($3, avatar),
            updated_at = CURRENT_TIMESTAMP
        WHERE user_id = $1
        RETURNING user_id`

	var updated string
	err := r.db.QueryRowContext(ctx, query, userID, name, avatar).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return r.GetByUserID(ctx, userID)
}
