package storage

import "strings"

// Маркер в каноническом URL, на место которого подставляется директива размера.
const uploadMarker = "/upload/"

// Фиксированные пресеты производных размеров.
const (
	thumbnailDirective = "/upload/w_300,h_300,c_fill,q_auto,f_auto/"
	mediumDirective    = "/upload/w_800,h_800,c_limit,q_auto,f_auto/"
	largeDirective     = "/upload/w_1920,h_1920,c_limit,q_auto,f_auto/"
)

// OptimizedURLs — производные адреса изображения.
// Всегда вычислимы из канонического URL, хранить их не обязательно.
type OptimizedURLs struct {
	Thumbnail string `json:"thumbnail"`
	Medium    string `json:"medium"`
	Large     string `json:"large"`
}

// DeriveURLs строит производные адреса чистой подстановкой строки.
// URL без маркера /upload/ возвращается без изменений для всех пресетов.
func DeriveURLs(canonicalURL string) OptimizedURLs {
	return OptimizedURLs{
		Thumbnail: strings.Replace(canonicalURL, uploadMarker, thumbnailDirective, 1),
		Medium:    strings.Replace(canonicalURL, uploadMarker, mediumDirective, 1),
		Large:     strings.Replace(canonicalURL, uploadMarker, largeDirective, 1),
	}
}
