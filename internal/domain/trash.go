package domain

import "time"

// RetentionDays — окно хранения в корзине после мягкого удаления.
const RetentionDays = 30

// RetentionWindow — то же окно как длительность.
const RetentionWindow = RetentionDays * 24 * time.Hour

// DaysUntilPurge возвращает количество полных дней до автоматической очистки.
// 30 сразу после удаления, 0 ровно через 30 дней, никогда не отрицательное.
func DaysUntilPurge(deletedAt, now time.Time) int {
	elapsed := int(now.Sub(deletedAt) / (24 * time.Hour))
	days := RetentionDays - elapsed
	if days < 0 {
		return 0
	}
	return days
}

// TrashedAlbum — альбом в корзине с обратным отсчетом до очистки.
type TrashedAlbum struct {
	Album
	DaysUntilPurge int `json:"days_until_purge"`
}

// TrashedImage — изображение в корзине с обратным отсчетом до очистки.
type TrashedImage struct {
	Image
	DaysUntilPurge int `json:"days_until_purge"`
}

// PurgeReport — итог операции окончательной очистки.
// Ошибки удаления из объектного хранилища не прерывают очистку,
// но обязаны быть посчитаны.
type PurgeReport struct {
	AlbumsPurged        int `json:"albums_purged"`
	ImagesPurged        int `json:"images_purged"`
	StoreDeleteFailures int `json:"store_delete_failures"`
}

// Add суммирует отчеты по отдельным сущностям.
func (r *PurgeReport) Add(other PurgeReport) {
	r.AlbumsPurged += other.AlbumsPurged
	r.ImagesPurged += other.ImagesPurged
	r.StoreDeleteFailures += other.StoreDeleteFailures
}
