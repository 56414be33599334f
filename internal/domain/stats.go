package domain

import (
	"fmt"
	"math"
	"time"
)

// StorageStats — агрегаты по набору не удаленных изображений.
type StorageStats struct {
	TotalImages    int    `json:"total_images" db:"total_images"`
	TotalSizeBytes int64  `json:"total_size_bytes" db:"total_size_bytes"`
	FormattedSize  string `json:"formatted_size" db:"-"`
	FavoriteImages int    `json:"favorite_images" db:"favorite_images"`
	TotalAlbums    int    `json:"total_albums" db:"total_albums"`
	FavoriteAlbums int    `json:"favorite_albums" db:"favorite_albums"`
}

// AlbumStats — агрегаты по одному альбому.
type AlbumStats struct {
	AlbumID        string    `json:"album_id" db:"album_id"`
	Name           string    `json:"name" db:"name"`
	ImageCount     int       `json:"image_count" db:"image_count"`
	TotalSizeBytes int64     `json:"total_size_bytes" db:"total_size_bytes"`
	FormattedSize  string    `json:"formatted_size" db:"-"`
	IsFavorite     bool      `json:"is_favorite" db:"is_favorite"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	SharedBy       string    `json:"shared_by,omitempty" db:"shared_by"`
}

// TrashCounts — количество элементов в корзине пользователя.
type TrashCounts struct {
	TrashedAlbums int `json:"trashed_albums" db:"trashed_albums"`
	TrashedImages int `json:"trashed_images" db:"trashed_images"`
}

// RecentActivity — активность за последние 7 дней.
type RecentActivity struct {
	RecentImages int        `json:"recent_images" db:"recent_images"`
	RecentAlbums int        `json:"recent_albums" db:"recent_albums"`
	LastUpload   *time.Time `json:"last_upload,omitempty" db:"last_upload"`
}

// UserProfile — полный профиль пользователя с агрегатами.
type UserProfile struct {
	User   User `json:"user"`
	Storage struct {
		Owned    StorageStats `json:"owned"`
		Shared   StorageStats `json:"shared"`
		Combined StorageStats `json:"combined"`
	} `json:"storage"`
	Albums struct {
		Owned  []AlbumStats `json:"owned"`
		Shared []AlbumStats `json:"shared"`
	} `json:"albums"`
	RecentActivity RecentActivity `json:"recent_activity"`
	Trash          TrashCounts    `json:"trash"`
}

// FormatBytes форматирует размер в человекочитаемый вид.
func FormatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB", "GB", "TB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	value := float64(bytes) / math.Pow(k, float64(i))
	return fmt.Sprintf("%g %s", math.Round(value*100)/100, sizes[i])
}
