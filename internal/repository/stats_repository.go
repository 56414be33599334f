package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"photodrive/internal/domain"
)

// StatsRepository отвечает за производные агрегаты. Только чтение.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// AlbumStats возвращает счетчики одного альбома по не удаленным изображениям.
func (r *StatsRepository) AlbumStats(ctx context.Context, albumID string) (*domain.StorageStats, error) {
	var stats domain.StorageStats
	query := `
        SELECT
            COUNT(i.id) AS total_images,
            COALESCE(SUM(i.size_bytes), 0) AS total_size_bytes,
            COUNT(i.id) FILTER (WHERE i.is_favorite) AS favorite_images,
            0 AS total_albums,
            0 AS favorite_albums
        FROM images i
        WHERE i.album_id = $1 AND i.deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &stats, query, albumID); err != nil {
		return nil, fmt.Errorf("failed to get album stats: %w", err)
	}

	return &stats, nil
}

// OwnedStats возвращает агрегаты по собственным альбомам пользователя.
func (r *StatsRepository) OwnedStats(ctx context.Context, ownerID string) (*domain.StorageStats, error) {
	var stats domain.StorageStats
	query := `
        SELECT
            COUNT(i.id) AS total_images,
            COALESCE(SUM(i.size_bytes), 0) AS total_size_bytes,
            COUNT(i.id) FILTER (WHERE i.is_favorite) AS favorite_images,
            (SELECT COUNT(*) FROM albums WHERE owner_id = $1 AND deleted_at IS NULL) AS total_albums,
            (SELECT COUNT(*) FROM albums WHERE owner_id = $1 AND deleted_at IS NULL AND is_favorite) AS favorite_albums
        FROM images i
        JOIN albums a ON a.album_id = i.album_id
        WHERE a.owner_id = $1
          AND a.deleted_at IS NULL
          AND i.deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &stats, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to get owned stats: %w", err)
	}

	return &stats, nil
}

// SharedStats возвращает агрегаты по чужим альбомам, расшаренным на email.
func (r *StatsRepository) SharedStats(ctx context.Context, ownerID, email string) (*domain.StorageStats, error) {
	var stats domain.StorageStats
	query := `
        WITH shared_albums AS (
            SELECT a.album_id, a.is_favorite
            FROM albums a
            JOIN album_shares s ON s.album_id = a.album_id
            WHERE s.email = $2
              AND a.owner_id <> $1
              AND a.deleted_at IS NULL
        )
        SELECT
            COUNT(i.id) AS total_images,
            COALESCE(SUM(i.size_bytes), 0) AS total_size_bytes,
            COUNT(i.id) FILTER (WHERE i.is_favorite) AS favorite_images,
            (SELECT COUNT(*) FROM shared_albums) AS total_albums,
            (SELECT COUNT(*) FROM shared_albums WHERE is_favorite) AS favorite_albums
        FROM shared_albums sa
        LEFT JOIN images i ON i.album_id = sa.album_id AND i.deleted_at IS NULL`

	if err := r.db.GetContext(ctx, &stats, query, ownerID, email); err != nil {
		return nil, fmt.Errorf("failed to get shared stats: %w", err)
	}

	return &stats, nil
}

// OwnedAlbumStats возвращает построчные агрегаты по собственным альбомам.
func (r *StatsRepository) OwnedAlbumStats(ctx context.Context, ownerID string) ([]domain.AlbumStats, error) {
	var stats []domain.AlbumStats
	query := `
        SELECT
            a.album_id,
            a.name,
            COUNT(i.id) AS image_count,
            COALESCE(SUM(i.size_bytes), 0) AS total_size_bytes,
            a.is_favorite,
            a.created_at,
            '' AS shared_by
        FROM albums a
        LEFT JOIN images i ON i.album_id = a.album_id AND i.deleted_at IS NULL
        WHERE a.owner_id = $1 AND a.deleted_at IS NULL
        GROUP BY a.id
        ORDER BY a.created_at DESC`

	if err := r.db.SelectContext(ctx, &stats, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to get owned album stats: %w", err)
	}

	return stats, nil
}

// SharedAlbumStats возвращает построчные агрегаты по расшаренным альбомам.
func (r *StatsRepository) SharedAlbumStats(ctx context.Context, ownerID, email string) ([]domain.AlbumStats, error) {
	var stats []domain.AlbumStats
	query := `
        SELECT
            a.album_id,
            a.name,
            COUNT(i.id) AS image_count,
            COALESCE(SUM(i.size_bytes), 0) AS total_size_bytes,
            a.is_favorite,
            a.created_at,
            a.owner_id AS shared_by
        FROM albums a
        JOIN album_shares s ON s.album_id = a.album_id
        LEFT JOIN images i ON i.album_id = a.album_id AND i.deleted_at IS NULL
        WHERE s.email = $2
          AND a.owner_id <> $1
          AND a.deleted_at IS NULL
        GROUP BY a.id
        ORDER BY a.created_at DESC`

	if err := r.db.SelectContext(ctx, &stats, query, ownerID, email); err != nil {
		return nil, fmt.Errorf("failed to get shared album stats: %w", err)
	}

	return stats, nil
}

// RecentActivity возвращает счетчики за период и время последней загрузки.
func (r *StatsRepository) RecentActivity(ctx context.Context, ownerID, email string, since time.Time) (*domain.RecentActivity, error) {
	var activity domain.RecentActivity
	query := `
        WITH visible_albums AS (
            SELECT a.album_id, a.created_at
            FROM albums a
            WHERE a.deleted_at IS NULL
              AND (a.owner_id = $1 OR EXISTS (
                  SELECT 1 FROM album_shares s
                  WHERE s.album_id = a.album_id AND s.email = $2
              ))
        )
        SELECT
            (SELECT COUNT(*) FROM images i
             JOIN visible_albums va ON va.album_id = i.album_id
             WHERE i.deleted_at IS NULL AND i.uploaded_at >= $3) AS recent_images,
            (SELECT COUNT(*) FROM visible_albums WHERE created_at >= $3) AS recent_albums,
            (SELECT MAX(i.uploaded_at) FROM images i
             JOIN albums a ON a.album_id = i.album_id
             WHERE a.owner_id = $1 AND i.deleted_at IS NULL) AS last_upload`

	if err := r.db.GetContext(ctx, &activity, query, ownerID, email, since); err != nil {
		return nil, fmt.Errorf("failed to get recent activity: %w", err)
	}

	return &activity, nil
}

// TrashCounts возвращает количество элементов в корзине владельца.
func (r *StatsRepository) TrashCounts(ctx context.Context, ownerID string) (*domain.TrashCounts, error) {
	var counts domain.TrashCounts
	query := `
        SELECT
            (SELECT COUNT(*) FROM albums
             WHERE owner_id = $1 AND deleted_at IS NOT NULL) AS trashed_albums,
            (SELECT COUNT(*) FROM images i
             JOIN albums a ON a.album_id = i.album_id
             WHERE a.owner_id = $1 AND i.deleted_at IS NOT NULL) AS trashed_images`

	if err := r.db.GetContext(ctx, &counts, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to get trash counts: %w", err)
	}

	return &counts, nil
}
