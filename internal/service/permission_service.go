package service

import (
	"strings"

	"photodrive/internal/apperror"
	"photodrive/internal/auth"
	"photodrive/internal/domain"
)

// canView проверяет право чтения: владелец альбома либо пользователь,
// чей email присутствует в списке расшаривания.
func canView(id auth.Identity, album *domain.Album) bool {
	if album.OwnerID == id.UserID {
		return true
	}
	email := normalizeEmail(id.Email)
	for _, shared := range album.SharedEmails {
		if normalizeEmail(shared) == email {
			return true
		}
	}
	return false
}

// canManage проверяет право управления: переименование, удаление,
// восстановление, окончательная очистка и расшаривание доступны
// только владельцу альбома.
func canManage(id auth.Identity, album *domain.Album) bool {
	return album.OwnerID == id.UserID
}

func requireView(id auth.Identity, album *domain.Album) error {
	if !canView(id, album) {
		return apperror.Forbidden("no access to this album")
	}
	return nil
}

func requireManage(id auth.Identity, album *domain.Album) error {
	if !canManage(id, album) {
		return apperror.Forbidden("only the album owner can perform this action")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
