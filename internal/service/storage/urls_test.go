package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveURLs(t *testing.T) {
	urls := DeriveURLs("https://cdn.example.com/upload/v1/albums/a1/photo.jpg")

	assert.Equal(t, "https://cdn.example.com/upload/w_300,h_300,c_fill,q_auto,f_auto/v1/albums/a1/photo.jpg", urls.Thumbnail)
	assert.Equal(t, "https://cdn.example.com/upload/w_800,h_800,c_limit,q_auto,f_auto/v1/albums/a1/photo.jpg", urls.Medium)
	assert.Equal(t, "https://cdn.example.com/upload/w_1920,h_1920,c_limit,q_auto,f_auto/v1/albums/a1/photo.jpg", urls.Large)
}

func TestDeriveURLsReplacesOnlyFirstMarker(t *testing.T) {
	urls := DeriveURLs("https://cdn.example.com/upload/albums/upload/photo.jpg")

	assert.Equal(t, "https://cdn.example.com/upload/w_300,h_300,c_fill,q_auto,f_auto/albums/upload/photo.jpg", urls.Thumbnail)
}

func TestDeriveURLsWithoutMarker(t *testing.T) {
	raw := "https://files.example.com/photo.jpg"
	urls := DeriveURLs(raw)

	assert.Equal(t, raw, urls.Thumbnail)
	assert.Equal(t, raw, urls.Medium)
	assert.Equal(t, raw, urls.Large)
}
