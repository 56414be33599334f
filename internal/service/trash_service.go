package service

import (
	"context"
	"errors"
	"log"
	"time"

	"photodrive/internal/apperror"
	"photodrive/internal/auth"
	"photodrive/internal/domain"
	"photodrive/internal/service/storage"
)

// TrashService реализует содержимое корзины и окончательную очистку:
// ручную (по одной сущности и целиком) и фоновую по истечении 30 дней.
//
// Очистка идет по одной сущности за раз: сначала бинарник, затем запись.
// Прерывание на любом шаге оставляет данные в состоянии, из которого
// повторный запуск корректно продолжит работу.
type TrashService struct {
	trash  TrashStore
	albums AlbumStore
	images ImageStore
	store  storage.Storage
}

func NewTrashService(trash TrashStore, albums AlbumStore, images ImageStore, store storage.Storage) *TrashService {
	return &TrashService{
		trash:  trash,
		albums: albums,
		images: images,
		store:  store,
	}
}

// TrashContents — содержимое корзины пользователя.
type TrashContents struct {
	Albums []domain.TrashedAlbum `json:"albums"`
	Images []domain.TrashedImage `json:"images"`
}

// List возвращает корзину владельца: удаленные альбомы и отдельно
// удаленные изображения из активных альбомов, каждое с количеством
// дней до автоматической очистки.
func (s *TrashService) List(ctx context.Context, id auth.Identity) (*TrashContents, error) {
	albums, err := s.trash.ListTrashedAlbums(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	images, err := s.trash.ListTrashedImages(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	contents := &TrashContents{
		Albums: make([]domain.TrashedAlbum, 0, len(albums)),
		Images: make([]domain.TrashedImage, 0, len(images)),
	}
	for _, album := range albums {
		contents.Albums = append(contents.Albums, domain.TrashedAlbum{
			Album:          album,
			DaysUntilPurge: domain.DaysUntilPurge(*album.DeletedAt, now),
		})
	}
	for _, image := range images {
		decorateImage(&image)
		contents.Images = append(contents.Images, domain.TrashedImage{
			Image:          image,
			DaysUntilPurge: domain.DaysUntilPurge(*image.DeletedAt, now),
		})
	}
	return contents, nil
}

// PurgeAlbum безвозвратно удаляет альбом из корзины вместе со всеми
// изображениями и их бинарниками. Только для владельца.
func (s *TrashService) PurgeAlbum(ctx context.Context, id auth.Identity, albumID string) (*domain.PurgeReport, error) {
	album, err := s.albums.GetByAlbumID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(id, album); err != nil {
		return nil, err
	}
	if !album.IsDeleted {
		return nil, apperror.InvalidState("album is not in trash")
	}

	report := &domain.PurgeReport{}
	if err := s.purgeAlbum(ctx, albumID, report); err != nil {
		return report, err
	}
	return report, nil
}

// PurgeImage безвозвратно удаляет одно изображение из корзины.
func (s *TrashService) PurgeImage(ctx context.Context, id auth.Identity, imageID string) (*domain.PurgeReport, error) {
	image, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	album, err := s.albums.GetByAlbumID(ctx, image.AlbumID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(id, album); err != nil {
		return nil, err
	}
	if !image.IsDeleted {
		return nil, apperror.InvalidState("image is not in trash")
	}

	report := &domain.PurgeReport{}
	if err := s.purgeImage(ctx, *image, report); err != nil {
		return report, err
	}
	return report, nil
}

// Empty безвозвратно очищает всю корзину владельца независимо от
// возраста записей.
func (s *TrashService) Empty(ctx context.Context, id auth.Identity) (*domain.PurgeReport, error) {
	return s.purgeMatching(ctx, id.UserID, nil)
}

// Sweep удаляет все записи старше окна хранения у всех пользователей.
// Запускается периодически; ошибки отдельных сущностей логируются и
// не прерывают проход, поэтому повторный запуск доберет остатки.
func (s *TrashService) Sweep(ctx context.Context) (*domain.PurgeReport, error) {
	cutoff := time.Now().UTC().Add(-domain.RetentionWindow)
	return s.purgeMatching(ctx, "", &cutoff)
}

func (s *TrashService) purgeMatching(ctx context.Context, ownerID string, cutoff *time.Time) (*domain.PurgeReport, error) {
	report := &domain.PurgeReport{}

	albums, err := s.trash.FindPurgeableAlbums(ctx, ownerID, cutoff)
	if err != nil {
		return report, err
	}
	for _, album := range albums {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.purgeAlbum(ctx, album.AlbumID, report); err != nil {
			log.Printf("WARNING: failed to purge album %s: %v", album.AlbumID, err)
		}
	}

	images, err := s.trash.FindPurgeableImages(ctx, ownerID, cutoff)
	if err != nil {
		return report, err
	}
	for _, image := range images {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.purgeImage(ctx, image, report); err != nil {
			log.Printf("WARNING: failed to purge image %s: %v", image.ImageID, err)
		}
	}
	return report, nil
}

// purgeAlbum удаляет изображения альбома по одному, затем сам альбом.
// Изображения берутся все, включая удаленные каскадом: после очистки
// альбома от них не должно остаться ни записей, ни бинарников.
func (s *TrashService) purgeAlbum(ctx context.Context, albumID string, report *domain.PurgeReport) error {
	images, err := s.trash.ListAlbumImages(ctx, albumID)
	if err != nil {
		return err
	}
	for _, image := range images {
		if err := s.purgeImage(ctx, image, report); err != nil {
			return err
		}
	}
	if err := s.trash.DeleteAlbumPermanently(ctx, albumID); err != nil {
		// Альбом мог быть удален параллельным проходом.
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return err
	}
	report.AlbumsPurged++
	return nil
}

// purgeImage удаляет бинарник, затем запись. Отказ хранилища не
// блокирует удаление записи, но попадает в отчет. Отказ удаления
// записи возвращается вызывающему: запись еще существует, и повторный
// запуск должен ее добрать.
func (s *TrashService) purgeImage(ctx context.Context, image domain.Image, report *domain.PurgeReport) error {
	if image.StorageKey != "" {
		if err := s.store.DeleteObject(image.StorageKey); err != nil {
			log.Printf("WARNING: failed to delete object %s: %v", image.StorageKey, err)
			report.StoreDeleteFailures++
		}
	}
	if err := s.trash.DeleteImagePermanently(ctx, image.ImageID); err != nil {
		// Запись могла быть удалена параллельным проходом.
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return err
	}
	report.ImagesPurged++
	return nil
}
