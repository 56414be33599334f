package service

import (
	"context"
	"time"

	"photodrive/internal/auth"
	"photodrive/internal/domain"
)

// StatsService собирает агрегаты для профиля пользователя и альбомов.
// Все агрегаты считаются только по не удаленным записям; содержимое
// корзины учитывается отдельными счетчиками.
type StatsService struct {
	stats  StatsStore
	users  UserStore
	albums AlbumStore
}

func NewStatsService(stats StatsStore, users UserStore, albums AlbumStore) *StatsService {
	return &StatsService{
		stats:  stats,
		users:  users,
		albums: albums,
	}
}

// UserProfile собирает профиль: пользователь, собственные и расшаренные
// агрегаты, разбивка по альбомам, активность за 7 дней и корзина.
func (s *StatsService) UserProfile(ctx context.Context, id auth.Identity) (*domain.UserProfile, error) {
	user, err := s.users.GetByUserID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(id.Email)

	owned, err := s.stats.OwnedStats(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	shared, err := s.stats.SharedStats(ctx, id.UserID, email)
	if err != nil {
		return nil, err
	}
	ownedAlbums, err := s.stats.OwnedAlbumStats(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	sharedAlbums, err := s.stats.SharedAlbumStats(ctx, id.UserID, email)
	if err != nil {
		return nil, err
	}
	since := time.Now().AddDate(0, 0, -7)
	activity, err := s.stats.RecentActivity(ctx, id.UserID, email, since)
	if err != nil {
		return nil, err
	}
	trash, err := s.stats.TrashCounts(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	profile := &domain.UserProfile{
		User:           *user,
		RecentActivity: *activity,
		Trash:          *trash,
	}
	profile.Storage.Owned = formatStats(*owned)
	profile.Storage.Shared = formatStats(*shared)
	profile.Storage.Combined = formatStats(combineStats(*owned, *shared))
	profile.Albums.Owned = formatAlbumStats(ownedAlbums)
	profile.Albums.Shared = formatAlbumStats(sharedAlbums)
	return profile, nil
}

// AlbumStats возвращает агрегаты одного альбома, доступного на чтение.
func (s *StatsService) AlbumStats(ctx context.Context, id auth.Identity, albumID string) (*domain.StorageStats, error) {
	album, err := s.albums.GetByAlbumID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if err := requireView(id, album); err != nil {
		return nil, err
	}
	stats, err := s.stats.AlbumStats(ctx, albumID)
	if err != nil {
		return nil, err
	}
	formatted := formatStats(*stats)
	return &formatted, nil
}

func combineStats(owned, shared domain.StorageStats) domain.StorageStats {
	return domain.StorageStats{
		TotalImages:    owned.TotalImages + shared.TotalImages,
		TotalSizeBytes: owned.TotalSizeBytes + shared.TotalSizeBytes,
		FavoriteImages: owned.FavoriteImages + shared.FavoriteImages,
		TotalAlbums:    owned.TotalAlbums + shared.TotalAlbums,
		FavoriteAlbums: owned.FavoriteAlbums + shared.FavoriteAlbums,
	}
}

func formatStats(stats domain.StorageStats) domain.StorageStats {
	stats.FormattedSize = domain.FormatBytes(stats.TotalSizeBytes)
	return stats
}

func formatAlbumStats(stats []domain.AlbumStats) []domain.AlbumStats {
	if stats == nil {
		return []domain.AlbumStats{}
	}
	for i := range stats {
		stats[i].FormattedSize = domain.FormatBytes(stats[i].TotalSizeBytes)
	}
	return stats
}
