package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"photodrive/internal/apperror"
	"photodrive/internal/domain"
)

// TrashRepository владеет переходами жизненного цикла:
// мягкое удаление, восстановление, окончательное удаление записей.
type TrashRepository struct {
	db *sqlx.DB
}

func NewTrashRepository(db *sqlx.DB) *TrashRepository {
	return &TrashRepository{db: db}
}

// SoftDeleteAlbum помечает альбом удаленным и каскадно помечает его изображения.
// Переход выполняется условным UPDATE: повторное удаление не перезапишет метку.
// Уже удаленные изображения сохраняют свой исходный deleted_at.
func (r *TrashRepository) SoftDeleteAlbum(ctx context.Context, albumID string, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        UPDATE albums
        SET deleted_at = $2,
            updated_at = CURRENT_TIMESTAMP
        WHERE album_id = $1 AND deleted_at IS NULL
        RETURNING album_id`

	var deleted string
	err = tx.QueryRowContext(ctx, query, albumID, now).Scan(&deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifyAlbumState(ctx, albumID, "album is already in trash")
		}
		return fmt.Errorf("failed to move album to trash: %w", err)
	}

	// Каскад: помечаем только еще не удаленные изображения той же меткой времени.
	_, err = tx.ExecContext(ctx, `
        UPDATE images
        SET deleted_at = $2,
            updated_at = CURRENT_TIMESTAMP
        WHERE album_id = $1 AND deleted_at IS NULL`,
		albumID, now)
	if err != nil {
		return fmt.Errorf("failed to cascade delete album images: %w", err)
	}

	return tx.Commit()
}

// RestoreAlbum снимает метку удаления с альбома и со всех его изображений,
// включая удаленные по отдельности до удаления альбома.
func (r *TrashRepository) RestoreAlbum(ctx context.Context, albumID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        UPDATE albums
        SET deleted_at = NULL,
            updated_at = CURRENT_TIMESTAMP
        WHERE album_id = $1 AND deleted_at IS NOT NULL
        RETURNING album_id`

	var restored string
	err = tx.QueryRowContext(ctx, query, albumID).Scan(&restored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifyAlbumState(ctx, albumID, "album is not in trash")
		}
		return fmt.Errorf("failed to restore album: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE images
        SET deleted_at = NULL,
            updated_at = CURRENT_TIMESTAMP
        WHERE album_id = $1 AND deleted_at IS NOT NULL`,
		albumID)
	if err != nil {
		return fmt.Errorf("failed to cascade restore album images: %w", err)
	}

	return tx.Commit()
}

// classifyAlbumState различает отсутствующий альбом и недопустимое состояние.
func (r *TrashRepository) classifyAlbumState(ctx context.Context, albumID, stateMessage string) error {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM albums WHERE album_id = $1)`, albumID)
	if err != nil {
		return fmt.Errorf("failed to check album existence: %w", err)
	}
	if !exists {
		return apperror.NotFound("album", albumID)
	}
	return apperror.InvalidState(stateMessage)
}

// SoftDeleteImage помечает одно изображение удаленным.
func (r *TrashRepository) SoftDeleteImage(ctx context.Context, imageID uuid.UUID, now time.Time) error {
	query := `
        UPDATE images
        SET deleted_at = $2,
            updated_at = CURRENT_TIMESTAMP
        WHERE image_id = $1 AND deleted_at IS NULL
        RETURNING image_id`

	var deleted uuid.UUID
	err := r.db.QueryRowContext(ctx, query, imageID, now).Scan(&deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifyImageState(ctx, imageID, "image is already in trash")
		}
		return fmt.Errorf("failed to move image to trash: %w", err)
	}

	return nil
}

// RestoreImage снимает метку удаления с одного изображения.
func (r *TrashRepository) RestoreImage(ctx context.Context, imageID uuid.UUID) error {
	query := `
        UPDATE images
        SET deleted_at = NULL,
            updated_at = CURRENT_TIMESTAMP
        WHERE image_id = $1 AND deleted_at IS NOT NULL
        RETURNING image_id`

	var restored uuid.UUID
	err := r.db.QueryRowContext(ctx, query, imageID).Scan(&restored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifyImageState(ctx, imageID, "image is not in trash")
		}
		return fmt.Errorf("failed to restore image: %w", err)
	}

	return nil
}

func (r *TrashRepository) classifyImageState(ctx context.Context, imageID uuid.UUID, stateMessage string) error {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM images WHERE image_id = $1)`, imageID)
	if err != nil {
		return fmt.Errorf("failed to check image existence: %w", err)
	}
	if !exists {
		return apperror.NotFound("image", imageID.String())
	}
	return apperror.InvalidState(stateMessage)
}

// DeleteImagePermanently удаляет запись изображения. Комментарии уходят каскадом FK.
func (r *TrashRepository) DeleteImagePermanently(ctx context.Context, imageID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE image_id = $1`, imageID)
	if err != nil {
		return fmt.Errorf("failed to delete image permanently: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("image", imageID.String())
	}

	return nil
}

// DeleteAlbumPermanently удаляет запись альбома вместе с оставшимися
// записями изображений и шарингом. Бинарники к этому моменту уже удалены
// по одному в сервисе.
func (r *TrashRepository) DeleteAlbumPermanently(ctx context.Context, albumID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE album_id = $1`, albumID); err != nil {
		return fmt.Errorf("failed to delete album images: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE album_id = $1`, albumID)
	if err != nil {
		return fmt.Errorf("failed to delete album permanently: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("album", albumID)
	}

	return tx.Commit()
}

// FindPurgeableAlbums возвращает мягко удаленные альбомы для окончательной очистки.
// ownerID пустой — по всем владельцам; cutoff nil — без фильтра по возрасту.
func (r *TrashRepository) FindPurgeableAlbums(ctx context.Context, ownerID string, cutoff *time.Time) ([]domain.Album, error) {
	query := albumSelect + `
    WHERE a.deleted_at IS NOT NULL`
	args := []interface{}{}
	arg := 1

	if ownerID != "" {
		query += fmt.Sprintf(" AND a.owner_id = $%d", arg)
		args = append(args, ownerID)
		arg++
	}
	if cutoff != nil {
		query += fmt.Sprintf(" AND a.deleted_at < $%d", arg)
		args = append(args, *cutoff)
		arg++
	}
	query += `
    GROUP BY a.id
    ORDER BY a.deleted_at`

	var albums []domain.Album
	if err := r.db.SelectContext(ctx, &albums, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find purgeable albums: %w", err)
	}

	return albums, nil
}

// FindPurgeableImages возвращает мягко удаленные изображения для очистки.
// Изображения, чьи альбомы уже удалены очисткой альбомов, сюда не попадают:
// их записи к этому моменту отсутствуют.
func (r *TrashRepository) FindPurgeableImages(ctx context.Context, ownerID string, cutoff *time.Time) ([]domain.Image, error) {
	query := imageSelect + `
    JOIN albums a ON a.album_id = i.album_id
    WHERE i.deleted_at IS NOT NULL`
	args := []interface{}{}
	arg := 1

	if ownerID != "" {
		query += fmt.Sprintf(" AND a.owner_id = $%d", arg)
		args = append(args, ownerID)
		arg++
	}
	if cutoff != nil {
		query += fmt.Sprintf(" AND i.deleted_at < $%d", arg)
		args = append(args, *cutoff)
		arg++
	}
	query += `
    ORDER BY i.deleted_at`

	var images []domain.Image
	if err := r.db.SelectContext(ctx, &images, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find purgeable images: %w", err)
	}

	return images, nil
}

// ListAlbumImages возвращает все изображения альбома, включая удаленные.
// Используется при окончательной очистке альбома для освобождения бинарников.
func (r *TrashRepository) ListAlbumImages(ctx context.Context, albumID string) ([]domain.Image, error) {
	var images []domain.Image
	query := imageSelect + `
    WHERE i.album_id = $1
    ORDER BY i.id`

	if err := r.db.SelectContext(ctx, &images, query, albumID); err != nil {
		return nil, fmt.Errorf("failed to list album images: %w", err)
	}

	return images, nil
}

// ListTrashedAlbums возвращает содержимое корзины альбомов владельца.
func (r *TrashRepository) ListTrashedAlbums(ctx context.Context, ownerID string) ([]domain.Album, error) {
	var albums []domain.Album
	query := albumSelect + `
    WHERE a.deleted_at IS NOT NULL
      AND a.owner_id = $1
    GROUP BY a.id
    ORDER BY a.deleted_at DESC`

	if err := r.db.SelectContext(ctx, &albums, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list trashed albums: %w", err)
	}

	return albums, nil
}

// ListTrashedImages возвращает отдельно удаленные изображения владельца.
// Изображения, удаленные каскадом вместе с альбомом, в список не входят:
// в корзине их представляет сам альбом.
func (r *TrashRepository) ListTrashedImages(ctx context.Context, ownerID string) ([]domain.Image, error) {
	var images []domain.Image
	query := imageSelect + `
    JOIN albums a ON a.album_id = i.album_id
    WHERE i.deleted_at IS NOT NULL
      AND a.deleted_at IS NULL
      AND a.owner_id = $1
    ORDER BY i.deleted_at DESC`

	if err := r.db.SelectContext(ctx, &images, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list trashed images: %w", err)
	}

	return images, nil
}
