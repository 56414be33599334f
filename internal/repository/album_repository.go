package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"photodrive/internal/apperror"
	"photodrive/internal/domain"
)

// albumSelect — базовый запрос альбома вместе со списком шаринга.
const albumSelect = `
    SELECT
        a.id,
        a.album_id,
        a.name,
        a.description,
        a.owner_id,
        a.is_favorite,
        a.deleted_at IS NOT NULL AS is_deleted,
        a.deleted_at,
        a.created_at,
        a.updated_at,
        COALESCE(array_agg(s.email ORDER BY s.email) FILTER (WHERE s.email IS NOT NULL), '{}') AS shared_emails
    FROM albums a
    LEFT JOIN album_shares s ON s.album_id = a.album_id`

type AlbumRepository struct {
	db *sqlx.DB
}

func NewAlbumRepository(db *sqlx.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// isUniqueViolation распознает нарушение уникального ограничения Postgres.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// isForeignKeyViolation распознает нарушение внешнего ключа Postgres.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// Create вставляет новый альбом.
// Уникальность (owner_id, lower(name)) обеспечивает индекс,
// поэтому гонка проверка-вставка невозможна.
func (r *AlbumRepository) Create(ctx context.Context, album *domain.Album) error {
	query := `
        INSERT INTO albums (album_id, name, description, owner_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(
		ctx,
		query,
		album.AlbumID,
		album.Name,
		album.Description,
		album.OwnerID,
	).Scan(&album.ID, &album.CreatedAt, &album.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("album %q already exists", album.Name))
		}
		return fmt.Errorf("failed to create album: %w", err)
	}

	if album.SharedEmails == nil {
		album.SharedEmails = pq.StringArray{}
	}

	return nil
}

// GetByAlbumID возвращает альбом по внешнему идентификатору.
func (r *AlbumRepository) GetByAlbumID(ctx context.Context, albumID string) (*domain.Album, error) {
	var album domain.Album
	query := albumSelect + `
    WHERE a.album_id = $1
    GROUP BY a.id`

	err := r.db.GetContext(ctx, &album, query, albumID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("album", albumID)
		}
		return nil, fmt.Errorf("failed to get album: %w", err)
	}

	return &album, nil
}

// ListVisible возвращает не удаленные альбомы, доступные пользователю:
// собственные и расшаренные на его email.
func (r *AlbumRepository) ListVisible(ctx context.Context, ownerID, email string) ([]domain.Album, error) {
	var albums []domain.Album
	query := albumSelect + `
    WHERE a.deleted_at IS NULL
      AND (a.owner_id = $1 OR EXISTS (
          SELECT 1 FROM album_shares ss
          WHERE ss.album_id = a.album_id AND ss.email = $2
      ))
    GROUP BY a.id
    ORDER BY a.created_at DESC`

	err := r.db.SelectContext(ctx, &albums, query, ownerID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}

	return albums, nil
}

// ListShared возвращает чужие альбомы, расшаренные на указанный email.
func (r *AlbumRepository) ListShared(ctx context.Context, ownerID, email string) ([]domain.Album, error) {
	var albums []domain.Album
	query := albumSelect + `
    WHERE a.deleted_at IS NULL
      AND a.owner_id <> $1
      AND EXISTS (
          SELECT 1 FROM album_shares ss
          WHERE ss.album_id = a.album_id AND ss.email = $2
      )
    GROUP BY a.id
    ORDER BY a.created_at DESC`

	err := r.db.SelectContext(ctx, &albums, query, ownerID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared albums: %w", err)
	}

	return albums, nil
}

// ListFavorites возвращает избранные не удаленные альбомы владельца.
func (r *AlbumRepository) ListFavorites(ctx context.Context, ownerID string) ([]domain.Album, error) {
	var albums []domain.Album
	query := albumSelect + `
    WHERE a.deleted_at IS NULL
      AND a.owner_id = $1
      AND a.is_favorite
    GROUP BY a.id
    ORDER BY a.created_at DESC`

	err := r.db.SelectContext(ctx, &albums, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite albums: %w", err)
	}

	return albums, nil
}

// ListRecent возвращает альбомы владельца, созданные не раньше since.
func (r *AlbumRepository) ListRecent(ctx context.Context, ownerID string, since time.Time) ([]domain.Album, error) {
	var albums []domain.Album
	query := albumSelect + `
    WHERE a.deleted_at IS NULL
      AND a.owner_id = $1
      AND a.created_at >= $2
    GROUP BY a.id
    ORDER BY a.created_at DESC`

	err := r.db.SelectContext(ctx, &albums, query, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent albums: %w", err)
	}

	return albums, nil
}

// Update применяет частичное обновление. nil-поля остаются без изменений.
func (r *AlbumRepository) Update(ctx context.Context, albumID string, upd domain.AlbumUpdate) (*domain.Album, error) {
	query := `
        UPDATE albums
        SET name = COALESCE($2, name),
            description = COALESCE($3, description),
            is_favorite = COALESCE($4, is_favorite),
            updated_at = CURRENT_TIMESTAMP
        WHERE album_id = $1
        RETURNING album_id`

	var updated string
	err := r.db.QueryRowContext(ctx, query, albumID, upd.Name, upd.Description, upd.IsFavorite).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("album", albumID)
		}
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("album with this name already exists")
		}
		return nil, fmt.Errorf("failed to update album: %w", err)
	}

	return r.GetByAlbumID(ctx, albumID)
}

// AddShares добавляет email-адреса в список шаринга альбома.
// Повторная вставка того же адреса безвредна.
func (r *AlbumRepository) AddShares(ctx context.Context, albumID string, emails []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO album_shares (album_id, email)
        VALUES ($1, $2)
        ON CONFLICT (album_id, email) DO NOTHING`

	for _, email := range emails {
		if _, err := tx.ExecContext(ctx, query, albumID, email); err != nil {
			if isForeignKeyViolation(err) {
				return apperror.NotFound("album", albumID)
			}
			return fmt.Errorf("failed to share album with %s: %w", email, err)
		}
	}

	return tx.Commit()
}

// RemoveShare убирает email из списка шаринга.
func (r *AlbumRepository) RemoveShare(ctx context.Context, albumID, email string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM album_shares WHERE album_id = $1 AND email = $2`,
		albumID, email)
	if err != nil {
		return fmt.Errorf("failed to remove share: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("share", email)
	}

	return nil
}
