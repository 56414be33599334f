package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"photodrive/internal/domain"
	"photodrive/internal/service"
)

// AlbumHandler обрабатывает маршруты альбомов.
type AlbumHandler struct {
	albumService *service.AlbumService
	statsService *service.StatsService
}

func NewAlbumHandler(albumService *service.AlbumService, statsService *service.StatsService) *AlbumHandler {
	return &AlbumHandler{
		albumService: albumService,
		statsService: statsService,
	}
}

// Create обрабатывает создание альбома.
func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	album, err := h.albumService.Create(r.Context(), id, req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, album)
}

// List возвращает активные альбомы: собственные и расшаренные.
func (h *AlbumHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var (
		albums []domain.Album
		err    error
	)
	switch r.URL.Query().Get("filter") {
	case "shared":
		albums, err = h.albumService.ListShared(r.Context(), id)
	case "favorites":
		albums, err = h.albumService.ListFavorites(r.Context(), id)
	case "recent":
		albums, err = h.albumService.ListRecent(r.Context(), id)
	default:
		albums, err = h.albumService.List(r.Context(), id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if albums == nil {
		albums = []domain.Album{}
	}
	writeJSON(w, http.StatusOK, albums)
}

// Get возвращает один альбом с агрегатами по изображениям.
func (h *AlbumHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	albumID := chi.URLParam(r, "albumID")
	album, err := h.albumService.Get(r.Context(), id, albumID)
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := h.statsService.AlbumStats(r.Context(), id, albumID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*domain.Album
		Stats *domain.StorageStats `json:"stats"`
	}{album, stats})
}

// Images возвращает все изображения альбома, включая удаленные.
func (h *AlbumHandler) Images(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	images, err := h.albumService.Images(r.Context(), id, chi.URLParam(r, "albumID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// Stats возвращает агрегаты альбома.
func (h *AlbumHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	stats, err := h.statsService.AlbumStats(r.Context(), id, chi.URLParam(r, "albumID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Update частично обновляет альбом.
func (h *AlbumHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req domain.AlbumUpdate
	if !decodeBody(w, r, &req) {
		return
	}

	album, err := h.albumService.Update(r.Context(), id, chi.URLParam(r, "albumID"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// Favorite переключает флаг избранного.
func (h *AlbumHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req struct {
		IsFavorite bool `json:"is_favorite"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	album, err := h.albumService.SetFavorite(r.Context(), id, chi.URLParam(r, "albumID"), req.IsFavorite)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// Delete перемещает альбом в корзину вместе с изображениями.
func (h *AlbumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.albumService.SoftDelete(r.Context(), id, chi.URLParam(r, "albumID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "album moved to trash"})
}

// Restore возвращает альбом из корзины.
func (h *AlbumHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.albumService.Restore(r.Context(), id, chi.URLParam(r, "albumID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "album restored"})
}

// Share добавляет получателей доступа по email.
func (h *AlbumHandler) Share(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req struct {
		Emails []string `json:"emails"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	album, err := h.albumService.Share(r.Context(), id, chi.URLParam(r, "albumID"), req.Emails)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// Unshare убирает одного получателя доступа.
func (h *AlbumHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	album, err := h.albumService.Unshare(r.Context(), id, chi.URLParam(r, "albumID"), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}
