package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"photodrive/internal/apperror"
	"photodrive/internal/domain"
)

const imageSelect = `
    SELECT
        i.id,
        i.image_id,
        i.album_id,
        i.name,
        i.storage_url,
        i.storage_key,
        i.tags,
        i.person,
        i.is_favorite,
        i.size_bytes,
        i.uploaded_at,
        i.deleted_at IS NOT NULL AS is_deleted,
        i.deleted_at,
        i.updated_at
    FROM images i`

type ImageRepository struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create вставляет запись об изображении. Родительский альбом должен существовать.
func (r *ImageRepository) Create(ctx context.Context, image *domain.Image) error {
	query := `
        INSERT INTO images (image_id, album_id, name, storage_url, storage_key, tags, person, is_favorite, size_bytes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, uploaded_at, updated_at`

	if image.Tags == nil {
		image.Tags = pq.StringArray{}
	}

	err := r.db.QueryRowContext(
		ctx,
		query,
		image.ImageID,
		image.AlbumID,
		image.Name,
		image.StorageURL,
		image.StorageKey,
		image.Tags,
		image.Person,
		image.IsFavorite,
		image.SizeBytes,
	).Scan(&image.ID, &image.UploadedAt, &image.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("album", image.AlbumID)
		}
		return fmt.Errorf("failed to create image: %w", err)
	}

	return nil
}

// GetByID ищет изображение по внешнему идентификатору,
// при нечитаемом UUID пробует внутренний числовой id.
func (r *ImageRepository) GetByID(ctx context.Context, id string) (*domain.Image, error) {
	var (
		image domain.Image
		err   error
	)

	if imageUUID, parseErr := uuid.Parse(id); parseErr == nil {
		err = r.db.GetContext(ctx, &image, imageSelect+` WHERE i.image_id = $1`, imageUUID)
	} else if rowID, parseErr := strconv.ParseInt(id, 10, 64); parseErr == nil {
		err = r.db.GetContext(ctx, &image, imageSelect+` WHERE i.id = $1`, rowID)
	} else {
		return nil, apperror.NotFound("image", id)
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("image", id)
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return &image, nil
}

// List возвращает не удаленные изображения по фильтру.
func (r *ImageRepository) List(ctx context.Context, filter domain.ImageFilter) ([]domain.Image, error) {
	conditions := []string{"i.deleted_at IS NULL"}
	args := []interface{}{}
	arg := 1

	if filter.AlbumID != "" {
		conditions = append(conditions, fmt.Sprintf("i.album_id = $%d", arg))
		args = append(args, filter.AlbumID)
		arg++
	}
	if len(filter.AlbumIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("i.album_id = ANY($%d)", arg))
		args = append(args, pq.StringArray(filter.AlbumIDs))
		arg++
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, fmt.Sprintf("i.tags && $%d", arg))
		args = append(args, pq.StringArray(filter.Tags))
		arg++
	}
	if filter.Person != "" {
		conditions = append(conditions, fmt.Sprintf("i.person ILIKE '%%' || $%d || '%%'", arg))
		args = append(args, filter.Person)
		arg++
	}
	if filter.IsFavorite != nil {
		conditions = append(conditions, fmt.Sprintf("i.is_favorite = $%d", arg))
		args = append(args, *filter.IsFavorite)
		arg++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(i.name ILIKE '%%' || $%d || '%%' OR i.person ILIKE '%%' || $%d || '%%' OR EXISTS (SELECT 1 FROM unnest(i.tags) t WHERE t ILIKE '%%' || $%d || '%%'))",
			arg, arg, arg))
		args = append(args, filter.Search)
		arg++
	}

	var orderBy string
	switch filter.SortBy {
	case "oldest":
		orderBy = "i.uploaded_at ASC"
	case "name":
		orderBy = "i.name ASC"
	case "size":
		orderBy = "i.size_bytes DESC"
	default:
		orderBy = "i.uploaded_at DESC"
	}

	query := imageSelect + "\n    WHERE " + strings.Join(conditions, " AND ") + "\n    ORDER BY " + orderBy
	if filter.Limit > 0 {
		query += fmt.Sprintf("\n    LIMIT %d", filter.Limit)
	}

	var images []domain.Image
	if err := r.db.SelectContext(ctx, &images, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	return images, nil
}

// ListByAlbum возвращает изображения альбома, включая удаленные.
func (r *ImageRepository) ListByAlbum(ctx context.Context, albumID string) ([]domain.Image, error) {
	var images []domain.Image
	query := imageSelect + `
    WHERE i.album_id = $1
    ORDER BY i.uploaded_at DESC`

	if err := r.db.SelectContext(ctx, &images, query, albumID); err != nil {
		return nil, fmt.Errorf("failed to list album images: %w", err)
	}

	return images, nil
}

// ListFavoritesInAlbums возвращает избранные не удаленные изображения
// из перечисленных альбомов.
func (r *ImageRepository) ListFavoritesInAlbums(ctx context.Context, albumIDs []string) ([]domain.Image, error) {
	if len(albumIDs) == 0 {
		return []domain.Image{}, nil
	}

	var images []domain.Image
	query := imageSelect + `
    WHERE i.deleted_at IS NULL
      AND i.is_favorite
      AND i.album_id = ANY($1)
    ORDER BY i.uploaded_at DESC`

	if err := r.db.SelectContext(ctx, &images, query, pq.StringArray(albumIDs)); err != nil {
		return nil, fmt.Errorf("failed to list favorite images: %w", err)
	}

	return images, nil
}

// ListRecent возвращает последние загруженные не удаленные изображения
// из заданных альбомов.
func (r *ImageRepository) ListRecent(ctx context.Context, albumIDs []string, since time.Time, limit int) ([]domain.Image, error) {
	var images []domain.Image
	query := imageSelect + `
    WHERE i.deleted_at IS NULL
      AND i.album_id = ANY($1)
      AND i.uploaded_at >= $2
    ORDER BY i.uploaded_at DESC
    LIMIT $3`

	if err := r.db.SelectContext(ctx, &images, query, pq.StringArray(albumIDs), since, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent images: %w", err)
	}

	return images, nil
}

// Update применяет частичное обновление. album_id не меняется никогда.
func (r *ImageRepository) Update(ctx context.Context, imageID uuid.UUID, upd domain.ImageUpdate) (*domain.Image, error) {
	var tags interface{}
	if upd.Tags != nil {
		tags = pq.StringArray(upd.Tags)
	}

	query := `
        UPDATE images
        SET name = COALESCE($2, name),
            tags = COALESCE($3, tags),
            person = COALESCE($4, person),
            is_favorite = COALESCE($5, is_favorite),
            updated_at = CURRENT_TIMESTAMP
        WHERE image_id = $1
        RETURNING image_id`

	var updated uuid.UUID
	err := r.db.QueryRowContext(ctx, query, imageID, upd.Name, tags, upd.Person, upd.IsFavorite).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("image", imageID.String())
		}
		return nil, fmt.Errorf("failed to update image: %w", err)
	}

	return r.GetByID(ctx, imageID.String())
}

// AddComment добавляет комментарий к изображению.
func (r *ImageRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	query := `
        INSERT INTO image_comments (image_id, author, text)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, comment.ImageID, comment.Author, comment.Text).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("image", comment.ImageID.String())
		}
		return fmt.Errorf("failed to add comment: %w", err)
	}

	return nil
}

// GetComments возвращает комментарии изображения в порядке добавления.
func (r *ImageRepository) GetComments(ctx context.Context, imageID uuid.UUID) ([]domain.Comment, error) {
	var comments []domain.Comment
	query := `
        SELECT id, image_id, author, text, created_at
        FROM image_comments
        WHERE image_id = $1
        ORDER BY created_at, id`

	if err := r.db.SelectContext(ctx, &comments, query, imageID); err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	return comments, nil
}
