package service

import (
	"context"
	"strings"

	"github.com/rs/xid"

	"photodrive/internal/apperror"
	"photodrive/internal/auth"
	"photodrive/internal/domain"
)

// identityProvider абстрагирует обмен OAuth-кода на профиль Google.
type identityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleUser, error)
}

// tokenIssuer выпускает сессионные токены.
type tokenIssuer interface {
	Generate(id auth.Identity) (string, error)
}

// UserService реализует вход через Google и профиль пользователя.
type UserService struct {
	users    UserStore
	provider identityProvider
	tokens   tokenIssuer
}

func NewUserService(users UserStore, provider identityProvider, tokens tokenIssuer) *UserService {
	return &UserService{
		users:    users,
		provider: provider,
		tokens:   tokens,
	}
}

// LoginURL возвращает адрес страницы согласия Google.
func (s *UserService) LoginURL(state string) string {
	return s.provider.AuthURL(state)
}

// Login обменивает код авторизации на профиль Google, находит или
// создает пользователя и выпускает сессионный токен.
func (s *UserService) Login(ctx context.Context, code string) (*domain.User, string, error) {
	if strings.TrimSpace(code) == "" {
		return nil, "", apperror.InvalidInput("code", "authorization code is required")
	}
	googleUser, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if googleUser.Email == "" {
		return nil, "", apperror.ExternalDependency("google did not return an email", nil)
	}

	user, err := s.users.FindOrCreate(ctx, &domain.User{
		UserID:       xid.New().String(),
		GoogleID:     &googleUser.Sub,
		Email:        normalizeEmail(googleUser.Email),
		Name:         googleUser.Name,
		Avatar:       googleUser.Picture,
		AuthProvider: "google",
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Generate(auth.Identity{
		UserID: user.UserID,
		Email:  user.Email,
	})
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Get возвращает пользователя по его идентификатору сессии.
func (s *UserService) Get(ctx context.Context, id auth.Identity) (*domain.User, error) {
	return s.users.GetByUserID(ctx, id.UserID)
}

// UpdateProfile обновляет имя и аватар текущего пользователя.
func (s *UserService) UpdateProfile(ctx context.Context, id auth.Identity, name, avatar *string) (*domain.User, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperror.InvalidInput("name", "name cannot be empty")
		}
		name = &trimmed
	}
	return s.users.UpdateProfile(ctx, id.UserID, name, avatar)
}
