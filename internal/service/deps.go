package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"photodrive/internal/domain"
)

// Интерфейсы хранилищ данных, которые нужны сервисам.
// Реализуются структурами из internal/repository, в тестах — фейками в памяти.

type AlbumStore interface {
	Create(ctx context.Context, album *domain.Album) error
	GetByAlbumID(ctx context.Context, albumID string) (*domain.Album, error)
	ListVisible(ctx context.Context, ownerID, email string) ([]domain.Album, error)
	ListShared(ctx context.Context, ownerID, email string) ([]domain.Album, error)
	ListFavorites(ctx context.Context, ownerID string) ([]domain.Album, error)
	ListRecent(ctx context.Context, ownerID string, since time.Time) ([]domain.Album, error)
	Update(ctx context.Context, albumID string, upd domain.AlbumUpdate) (*domain.Album, error)
	AddShares(ctx context.Context, albumID string, emails []string) error
	RemoveShare(ctx context.Context, albumID, email string) error
}

type ImageStore interface {
	Create(ctx context.Context, image *domain.Image) error
	GetByID(ctx context.Context, id string) (*domain.Image, error)
	List(ctx context.Context, filter domain.ImageFilter) ([]domain.Image, error)
	ListByAlbum(ctx context.Context, albumID string) ([]domain.Image, error)
	ListFavoritesInAlbums(ctx context.Context, albumIDs []string) ([]domain.Image, error)
	ListRecent(ctx context.Context, albumIDs []string, since time.Time, limit int) ([]domain.Image, error)
	Update(ctx context.Context, imageID uuid.UUID, upd domain.ImageUpdate) (*domain.Image, error)
	AddComment(ctx context.Context, comment *domain.Comment) error
	GetComments(ctx context.Context, imageID uuid.UUID) ([]domain.Comment, error)
}

type TrashStore interface {
	SoftDeleteAlbum(ctx context.Context, albumID string, now time.Time) error
	RestoreAlbum(ctx context.Context, albumID string) error
	SoftDeleteImage(ctx context.Context, imageID uuid.UUID, now time.Time) error
	RestoreImage(ctx context.Context, imageID uuid.UUID) error
	DeleteImagePermanently(ctx context.Context, imageID uuid.UUID) error
	DeleteAlbumPermanently(ctx context.Context, albumID string) error
	FindPurgeableAlbums(ctx context.Context, ownerID string, cutoff *time.Time) ([]domain.Album, error)
	FindPurgeableImages(ctx context.Context, ownerID string, cutoff *time.Time) ([]domain.Image, error)
	ListAlbumImages(ctx context.Context, albumID string) ([]domain.Image, error)
	ListTrashedAlbums(ctx context.Context, ownerID string) ([]domain.Album, error)
	ListTrashedImages(ctx context.Context, ownerID string) ([]domain.Image, error)
}

type UserStore interface {
	GetByUserID(ctx context.Context, userID string) (*domain.User, error)
	FindOrCreate(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, name, avatar *string) (*domain.User, error)
}

type StatsStore interface {
	AlbumStats(ctx context.Context, albumID string) (*domain.StorageStats, error)
	OwnedStats(ctx context.Context, ownerID string) (*domain.StorageStats, error)
	SharedStats(ctx context.Context, ownerID, email string) (*domain.StorageStats, error)
	OwnedAlbumStats(ctx context.Context, ownerID string) ([]domain.AlbumStats, error)
	SharedAlbumStats(ctx context.Context, ownerID, email string) ([]domain.AlbumStats, error)
	RecentActivity(ctx context.Context, ownerID, email string, since time.Time) (*domain.RecentActivity, error)
	TrashCounts(ctx context.Context, ownerID string) (*domain.TrashCounts, error)
}
