package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Image представляет изображение внутри альбома.
// Права на изображение выводятся через родительский альбом,
// собственного владельца у изображения нет.
type Image struct {
	ID           int64          `json:"-" db:"id"`
	ImageID      uuid.UUID      `json:"image_id" db:"image_id"`
	AlbumID      string         `json:"album_id" db:"album_id"`
	Name         string         `json:"name" db:"name"`
	StorageURL   string         `json:"image_url" db:"storage_url"`
	StorageKey   string         `json:"-" db:"storage_key"`
	Tags         pq.StringArray `json:"tags" db:"tags"`
	Person       string         `json:"person" db:"person"`
	IsFavorite   bool           `json:"is_favorite" db:"is_favorite"`
	SizeBytes    int64          `json:"size_bytes" db:"size_bytes"`
	UploadedAt   time.Time      `json:"uploaded_at" db:"uploaded_at"`
	IsDeleted    bool           `json:"is_deleted" db:"is_deleted"`
	DeletedAt    *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`

	// Вычисляемые поля, не хранятся в базе.
	ThumbnailURL  string    `json:"thumbnail_url" db:"-"`
	MediumURL     string    `json:"medium_url" db:"-"`
	LargeURL      string    `json:"large_url" db:"-"`
	FormattedSize string    `json:"formatted_size" db:"-"`
	Comments      []Comment `json:"comments,omitempty" db:"-"`
}

// Comment представляет комментарий к изображению.
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	ImageID   uuid.UUID `json:"-" db:"image_id"`
	Author    string    `json:"author" db:"author"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ImageUpdate описывает частичное обновление изображения. nil-поля не меняются.
// AlbumID не обновляется: принадлежность альбому неизменна.
type ImageUpdate struct {
	Name       *string  `json:"name"`
	Tags       []string `json:"tags"`
	Person     *string  `json:"person"`
	IsFavorite *bool    `json:"is_favorite"`
}

// ImageFilter описывает фильтры списка изображений.
// AlbumIDs ограничивает выборку набором доступных вызывающему альбомов.
type ImageFilter struct {
	AlbumID    string
	AlbumIDs   []string
	Tags       []string
	Person     string
	IsFavorite *bool
	Search     string
	SortBy     string // newest, oldest, name, size
	Limit      int
}
