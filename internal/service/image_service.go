package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"photodrive/internal/apperror"
	"photodrive/internal/auth"
	"photodrive/internal/domain"
	"photodrive/internal/service/storage"
)

// ImageService реализует жизненный цикл изображений: регистрацию после
// загрузки бинарника, метаданные, комментарии и переходы через корзину.
type ImageService struct {
	images ImageStore
	albums AlbumStore
	trash  TrashStore
	store  storage.Storage
}

func NewImageService(images ImageStore, albums AlbumStore, trash TrashStore, store storage.Storage) *ImageService {
	return &ImageService{
		images: images,
		albums: albums,
		trash:  trash,
		store:  store,
	}
}

// RegisterImageInput — метаданные, сопровождающие загруженный бинарник.
type RegisterImageInput struct {
	Name   string
	Tags   []string
	Person string
}

// Register создает запись изображения для уже загруженного бинарника.
// Бинарник к этому моменту лежит в объектном хранилище; при любой ошибке
// регистрации он удаляется, чтобы не оставлять осиротевших объектов.
func (s *ImageService) Register(ctx context.Context, id auth.Identity, albumID string, upload *storage.UploadResult, input RegisterImageInput) (*domain.Image, error) {
	image, err := s.register(ctx, id, albumID, upload, input)
	if err != nil {
		if delErr := s.store.DeleteObject(upload.Key); delErr != nil {
			log.Printf("WARNING: failed to roll back uploaded object %s: %v", upload.Key, delErr)
		}
		return nil, err
	}
	return image, nil
}

func (s *ImageService) register(ctx context.Context, id auth.Identity, albumID string, upload *storage.UploadResult, input RegisterImageInput) (*domain.Image, error) {
	album, err := s.albums.GetByAlbumID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	// Загружать могут владелец и получатели доступа.
	if err := requireView(id, album); err != nil {
		return nil, err
	}
	if album.IsDeleted {
		return nil, apperror.InvalidState("album is in trash")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.InvalidInput("name", "image name is required")
	}

	image := &domain.Image{
		ImageID:    uuid.New(),
		AlbumID:    albumID,
		Name:       name,
		StorageURL: upload.URL,
		StorageKey: upload.Key,
		Tags:       pq.StringArray(normalizeTags(input.Tags)),
		Person:     strings.TrimSpace(input.Person),
		SizeBytes:  upload.SizeBytes,
	}
	if err := s.images.Create(ctx, image); err != nil {
		return nil, err
	}
	decorateImage(image)
	return image, nil
}

// Get возвращает изображение с комментариями и производными URL.
func (s *ImageService) Get(ctx context.Context, id auth.Identity, imageID string) (*domain.Image, error) {
	image, _, err := s.loadForView(ctx, id, imageID)
	if err != nil {
		return nil, err
	}
	comments, err := s.images.GetComments(ctx, image.ImageID)
	if err != nil {
		return nil, err
	}
	image.Comments = comments
	decorateImage(image)
	return image, nil
}

// List возвращает не удаленные изображения по фильтру. Без явного
// альбома выборка ограничена альбомами, видимыми пользователю.
func (s *ImageService) List(ctx context.Context, id auth.Identity, filter domain.ImageFilter) ([]domain.Image, error) {
	// Теги хранятся в нижнем регистре, фильтр приводим к тому же виду.
	if len(filter.Tags) > 0 {
		filter.Tags = normalizeTags(filter.Tags)
	}
	if filter.AlbumID != "" {
		album, err := s.albums.GetByAlbumID(ctx, filter.AlbumID)
		if err != nil {
			return nil, err
		}
		if err := requireView(id, album); err != nil {
			return nil, err
		}
	} else {
		albumIDs, err := s.visibleAlbumIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(albumIDs) == 0 {
			return []domain.Image{}, nil
		}
		filter.AlbumIDs = albumIDs
	}

	images, err := s.images.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	decorateImages(images)
	return images, nil
}

// ListRecent возвращает изображения, загруженные за последние 7 дней
// в доступные пользователю альбомы.
func (s *ImageService) ListRecent(ctx context.Context, id auth.Identity, limit int) ([]domain.Image, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	albumIDs, err := s.visibleAlbumIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(albumIDs) == 0 {
		return []domain.Image{}, nil
	}
	since := time.Now().AddDate(0, 0, -7)
	images, err := s.images.ListRecent(ctx, albumIDs, since, limit)
	if err != nil {
		return nil, err
	}
	decorateImages(images)
	return images, nil
}

// ListFavorites возвращает избранные изображения по всем доступным альбомам.
func (s *ImageService) ListFavorites(ctx context.Context, id auth.Identity) ([]domain.Image, error) {
	albumIDs, err := s.visibleAlbumIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(albumIDs) == 0 {
		return []domain.Image{}, nil
	}
	images, err := s.images.ListFavoritesInAlbums(ctx, albumIDs)
	if err != nil {
		return nil, err
	}
	decorateImages(images)
	return images, nil
}

// Update частично обновляет метаданные изображения.
func (s *ImageService) Update(ctx context.Context, id auth.Identity, imageID string, upd domain.ImageUpdate) (*domain.Image, error) {
	image, _, err := s.loadForManage(ctx, id, imageID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return nil, apperror.InvalidInput("name", "image name is required")
		}
		upd.Name = &trimmed
	}
	if upd.Tags != nil {
		upd.Tags = normalizeTags(upd.Tags)
	}
	updated, err := s.images.Update(ctx, image.ImageID, upd)
	if err != nil {
		return nil, err
	}
	decorateImage(updated)
	return updated, nil
}

// SetFavorite переключает флаг избранного изображения.
func (s *ImageService) SetFavorite(ctx context.Context, id auth.Identity, imageID string, favorite bool) (*domain.Image, error) {
	return s.Update(ctx, id, imageID, domain.ImageUpdate{IsFavorite: &favorite})
}

// AddComment добавляет комментарий от имени текущего пользователя.
// Комментировать могут все, кому альбом доступен на чтение.
func (s *ImageService) AddComment(ctx context.Context, id auth.Identity, imageID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.InvalidInput("text", "comment text is required")
	}
	image, _, err := s.loadForView(ctx, id, imageID)
	if err != nil {
		return nil, err
	}
	comment := &domain.Comment{
		ImageID: image.ImageID,
		Author:  normalizeEmail(id.Email),
		Text:    text,
	}
	if err := s.images.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// SoftDelete помечает изображение удаленным; альбом остается активным.
func (s *ImageService) SoftDelete(ctx context.Context, id auth.Identity, imageID string) error {
	image, _, err := s.loadForManage(ctx, id, imageID)
	if err != nil {
		return err
	}
	return s.trash.SoftDeleteImage(ctx, image.ImageID, time.Now().UTC())
}

// Restore возвращает изображение из корзины независимо от того,
// как оно туда попало — само или каскадом от альбома.
func (s *ImageService) Restore(ctx context.Context, id auth.Identity, imageID string) error {
	image, _, err := s.loadForManage(ctx, id, imageID)
	if err != nil {
		return err
	}
	return s.trash.RestoreImage(ctx, image.ImageID)
}

// SoftDeleteMany помечает удаленными набор изображений. Уже удаленные
// и отсутствующие пропускаются; возвращается число реально удаленных.
func (s *ImageService) SoftDeleteMany(ctx context.Context, id auth.Identity, imageIDs []string) (int, error) {
	deleted := 0
	now := time.Now().UTC()
	for _, imageID := range imageIDs {
		image, _, err := s.loadForManage(ctx, id, imageID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			return deleted, err
		}
		if err := s.trash.SoftDeleteImage(ctx, image.ImageID, now); err != nil {
			if errors.Is(err, apperror.ErrInvalidState) {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *ImageService) loadForView(ctx context.Context, id auth.Identity, imageID string) (*domain.Image, *domain.Album, error) {
	image, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, nil, err
	}
	album, err := s.albums.GetByAlbumID(ctx, image.AlbumID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireView(id, album); err != nil {
		return nil, nil, err
	}
	return image, album, nil
}

func (s *ImageService) loadForManage(ctx context.Context, id auth.Identity, imageID string) (*domain.Image, *domain.Album, error) {
	image, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, nil, err
	}
	album, err := s.albums.GetByAlbumID(ctx, image.AlbumID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireManage(id, album); err != nil {
		return nil, nil, err
	}
	return image, album, nil
}

func (s *ImageService) visibleAlbumIDs(ctx context.Context, id auth.Identity) ([]string, error) {
	albums, err := s.albums.ListVisible(ctx, id.UserID, normalizeEmail(id.Email))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(albums))
	for _, album := range albums {
		ids = append(ids, album.AlbumID)
	}
	return ids, nil
}

// normalizeTags чистит теги: обрезает пробелы, приводит к нижнему
// регистру, убирает пустые и дубликаты с сохранением порядка.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
	}
	return normalized
}

// decorateImage выставляет производные поля, не хранимые в БД.
func decorateImage(image *domain.Image) {
	urls := storage.DeriveURLs(image.StorageURL)
	image.ThumbnailURL = urls.Thumbnail
	image.MediumURL = urls.Medium
	image.LargeURL = urls.Large
	image.FormattedSize = domain.FormatBytes(image.SizeBytes)
}

func decorateImages(images []domain.Image) {
	for i := range images {
		decorateImage(&images[i])
	}
}
