package domain

import (
	"time"

	"github.com/lib/pq"
)

// Album представляет альбом пользователя.
// IsDeleted вычисляется в запросах как deleted_at IS NOT NULL,
// поэтому инвариант is_deleted == (deleted_at != null) держится по построению.
type Album struct {
	ID           int64          `json:"-" db:"id"`
	AlbumID      string         `json:"album_id" db:"album_id"`
	Name         string         `json:"name" db:"name"`
	Description  string         `json:"description" db:"description"`
	OwnerID      string         `json:"owner_id" db:"owner_id"`
	IsFavorite   bool           `json:"is_favorite" db:"is_favorite"`
	IsDeleted    bool           `json:"is_deleted" db:"is_deleted"`
	DeletedAt    *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
	SharedEmails pq.StringArray `json:"shared_emails" db:"shared_emails"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// AlbumUpdate описывает частичное обновление альбома. nil-поля не меняются.
type AlbumUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsFavorite  *bool   `json:"is_favorite"`
}
