package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/xid"

	"photodrive/internal/apperror"
	"photodrive/internal/auth"
	"photodrive/internal/domain"
)

// AlbumService реализует жизненный цикл альбомов: создание, обновление,
// расшаривание и переходы активный/корзина с каскадом на изображения.
type AlbumService struct {
	albums AlbumStore
	images ImageStore
	trash  TrashStore
}

func NewAlbumService(albums AlbumStore, images ImageStore, trash TrashStore) *AlbumService {
	return &AlbumService{
		albums: albums,
		images: images,
		trash:  trash,
	}
}

// Create создает активный альбом. Имя обязательно; уникальность имени
// в пределах владельца (без учета регистра) гарантирует индекс БД.
func (s *AlbumService) Create(ctx context.Context, id auth.Identity, name, description string) (*domain.Album, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.InvalidInput("name", "album name is required")
	}

	album := &domain.Album{
		AlbumID:     xid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     id.UserID,
	}
	if err := s.albums.Create(ctx, album); err != nil {
		return nil, err
	}
	return album, nil
}

// Get возвращает альбом, доступный вызывающему на чтение.
// Альбом в корзине по-прежнему виден владельцу и получателям доступа.
func (s *AlbumService) Get(ctx context.Context, id auth.Identity, albumID string) (*domain.Album, error) {
	album, err := s.albums.GetByAlbumID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if err := requireView(id, album); err != nil {
		return nil, err
	}
	return album, nil
}

// List возвращает активные альбомы, видимые пользователю:
// собственные плюс расшаренные на его email.
func (s *AlbumService) List(ctx context.Context, id auth.Identity) ([]domain.Album, error) {
	return s.albums.ListVisible(ctx, id.UserID, normalizeEmail(id.Email))
}

// ListShared возвращает активные чужие альбомы, расшаренные на пользователя.
func (s *AlbumService) ListShared(ctx context.Context, id auth.Identity) ([]domain.Album, error) {
	return s.albums.ListShared(ctx, id.UserID, normalizeEmail(id.Email))
}

// ListFavorites возвращает избранные активные альбомы владельца.
func (s *AlbumService) ListFavorites(ctx context.Context, id auth.Identity) ([]domain.Album, error) {
	return s.albums.ListFavorites(ctx, id.UserID)
}

// ListRecent возвращает альбомы владельца, созданные за последние 7 дней.
func (s *AlbumService) ListRecent(ctx context.Context, id auth.Identity) ([]domain.Album, error) {
	since := time.Now().AddDate(0, 0, -7)
	return s.albums.ListRecent(ctx, id.UserID, since)
}

// Update частично обновляет имя, описание и флаг избранного.
func (s *AlbumService) Update(ctx context.Context, id auth.Identity, albumID string, upd domain.AlbumUpdate) (*domain.Album, error) {
	album, err := s.albums.GetByAlbumID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(id, album); err != nil {
		return nil, err
	}
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return nil, apperror.InvalidInput("name", "album name is required")
		}
		upd.Name = &trimmed
	}
	if upd.Description != nil {
		trimmed := strings.TrimSpace(*upd.Description)
		upd.Description = &trimmed
	}
	return s.albums.Update(ctx, albumID, upd)
}

// SetFavorite переключает флаг избранного альбома.
func (s *AlbumService) SetFavorite(ctx context.Context, id auth.Identity, albumID string, favorite bool) (*domain.Album, error) {
	return s.Update(ctx, id, albumID, domain.AlbumUpdate{IsFavorite: &favorite})
}

// SoftDelete переводит активный альбом в корзину и каскадно помечает
// все его еще не удаленные изображения той же отметкой времени.
// Повторное удаление возвращает InvalidState.
func (s *AlbumService) SoftDelete(ctx context.Context, id auth.Identity, albumID string) error {
	album, err := s.albums.GetByAlbumID(ctx, albumID)
	if err != nil {
		return err
	}
	if err := requireManage(id, album); err != nil {
		return err
	}
	return s.trash.SoftDeleteAlbum(ctx, albumID, time.Now().UTC())
}

// Restore возвращает альбом из корзины вместе со всеми его изображениями.
// Восстановление активного альбома возвращает InvalidState.
func (s *AlbumService) Restore(ctx context.Context, id auth.Identity, albumID string) error {
	album, err := s.albums.GetByAlbumID(ctx, albumID)
	if err != nil {
		return err
	}
	if err := requireManage(id, album); err != nil {
		return err
	}
	return s.trash.RestoreAlbum(ctx, albumID)
}

// Share добавляет получателей доступа по email. Адреса нормализуются
// к нижнему регистру; email владельца отбрасывается, а если он был
// единственным в запросе — это ошибка ввода.
func (s *AlbumService) Share(ctx context.Context, id auth.Identity, albumID string, emails []string) (*domain.Album, error) {
	album, err := s.albums.GetByAlbumID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(id, album); err != nil {
		return nil, err
	}

	ownerEmail := normalizeEmail(id.Email)
	seen := make(map[string]bool, len(emails))
	var normalized []string
	requested := 0
	for _, raw := range emails {
		email := normalizeEmail(raw)
		if email == "" {
			continue
		}
		requested++
		if email == ownerEmail || seen[email] {
			continue
		}
		seen[email] = true
		normalized = append(normalized, email)
	}
	if requested == 0 {
		return nil, apperror.InvalidInput("emails", "at least one email is required")
	}
	if len(normalized) == 0 {
		return nil, apperror.InvalidInput("emails", "cannot share an album with its owner")
	}

	// Уже существующие записи не считаются ошибкой, но набор
	// действительно новых адресов должен быть непустым.
	existing := make(map[string]bool, len(album.SharedEmails))
	for _, email := range album.SharedEmails {
		existing[normalizeEmail(email)] = true
	}
	var fresh []string
	for _, email := range normalized {
		if !existing[email] {
			fresh = append(fresh, email)
		}
	}
	if len(fresh) == 0 {
		return nil, apperror.InvalidInput("emails", "album is already shared with all given emails")
	}

	if err := s.albums.AddShares(ctx, albumID, fresh); err != nil {
		return nil, err
	}
	return s.albums.GetByAlbumID(ctx, albumID)
}

// Unshare удаляет одного получателя доступа. Отсутствие записи — NotFound.
func (s *AlbumService) Unshare(ctx context.Context, id auth.Identity, albumID, email string) (*domain.Album, error) {
	album, err := s.albums.GetByAlbumID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(id, album); err != nil {
		return nil, err
	}
	if err := s.albums.RemoveShare(ctx, albumID, normalizeEmail(email)); err != nil {
		return nil, err
	}
	return s.albums.GetByAlbumID(ctx, albumID)
}

// Images возвращает все изображения альбома, включая удаленные,
// с выставленными флагами состояния и производными URL.
func (s *AlbumService) Images(ctx context.Context, id auth.Identity, albumID string) ([]domain.Image, error) {
	album, err := s.albums.GetByAlbumID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if err := requireView(id, album); err != nil {
		return nil, err
	}
	images, err := s.images.ListByAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	decorateImages(images)
	return images, nil
}
