package handler

import (
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"photodrive/internal/apperror"
	"photodrive/internal/domain"
	"photodrive/internal/service"
	"photodrive/internal/service/storage"
)

// Максимальный размер загружаемого изображения.
const maxUploadBytes = 25 << 20

// ImageHandler обрабатывает маршруты изображений.
// Загрузка бинарника в объектное хранилище происходит здесь,
// регистрация записи и откат при ошибке — в сервисе.
type ImageHandler struct {
	imageService *service.ImageService
	store        storage.Storage
}

func NewImageHandler(imageService *service.ImageService, store storage.Storage) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
		store:        store,
	}
}

// Upload принимает multipart-форму с файлом и метаданными.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperror.InvalidInput("file", "invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperror.InvalidInput("file", "image file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, apperror.InvalidInput("file", "failed to read uploaded file"))
		return
	}
	if len(data) == 0 {
		writeError(w, apperror.InvalidInput("file", "uploaded file is empty"))
		return
	}
	if len(data) > maxUploadBytes {
		writeError(w, apperror.InvalidInput("file", "uploaded file is too large"))
		return
	}

	albumID := r.FormValue("album_id")
	if albumID == "" {
		writeError(w, apperror.InvalidInput("album_id", "album_id is required"))
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	// Сегмент upload/ в ключе дает канонический URL с маркером,
	// от которого считаются производные размеры.
	key := "upload/albums/" + albumID + "/" + uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
	upload, err := h.store.UploadBytes(key, data)
	if err != nil {
		log.Printf("Failed to upload object %s: %v", key, err)
		writeError(w, apperror.ExternalDependency("failed to store image", err))
		return
	}

	image, err := h.imageService.Register(r.Context(), id, albumID, upload, service.RegisterImageInput{
		Name:   name,
		Tags:   splitTags(r.FormValue("tags")),
		Person: r.FormValue("person"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, image)
}

// List возвращает не удаленные изображения по фильтрам запроса.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := domain.ImageFilter{
		AlbumID: q.Get("album_id"),
		Tags:    splitTags(q.Get("tags")),
		Person:  q.Get("person"),
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
	}
	if fav := q.Get("favorite"); fav != "" {
		value := fav == "true"
		filter.IsFavorite = &value
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, apperror.InvalidInput("limit", "limit must be a non-negative integer"))
			return
		}
		filter.Limit = n
	}

	images, err := h.imageService.List(r.Context(), id, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// Recent возвращает недавно загруженные изображения.
func (h *ImageHandler) Recent(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	images, err := h.imageService.ListRecent(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// Favorites возвращает избранные изображения по всем доступным альбомам.
func (h *ImageHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	images, err := h.imageService.ListFavorites(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// Get возвращает изображение с комментариями.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	image, err := h.imageService.Get(r.Context(), id, chi.URLParam(r, "imageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, image)
}

// Update частично обновляет метаданные изображения.
func (h *ImageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req domain.ImageUpdate
	if !decodeBody(w, r, &req) {
		return
	}

	image, err := h.imageService.Update(r.Context(), id, chi.URLParam(r, "imageID"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, image)
}

// Favorite переключает флаг избранного изображения.
func (h *ImageHandler) Favorite(w http.ResponseWriter, r *http.Request) {
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

	image, err := h.imageService.SetFavorite(r.Context(), id, chi.URLParam(r, "imageID"), req.IsFavorite)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, image)
}

// Comment добавляет комментарий к изображению.
func (h *ImageHandler) Comment(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.imageService.AddComment(r.Context(), id, chi.URLParam(r, "imageID"), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// Delete перемещает изображение в корзину.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.imageService.SoftDelete(r.Context(), id, chi.URLParam(r, "imageID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "image moved to trash"})
}

// DeleteMany перемещает в корзину набор изображений.
func (h *ImageHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req struct {
		ImageIDs []string `json:"image_ids"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.ImageIDs) == 0 {
		writeError(w, apperror.InvalidInput("image_ids", "at least one image id is required"))
		return
	}

	deleted, err := h.imageService.SoftDeleteMany(r.Context(), id, req.ImageIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// Restore возвращает изображение из корзины.
func (h *ImageHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.imageService.Restore(r.Context(), id, chi.URLParam(r, "imageID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "image restored"})
}

// splitTags разбирает список тегов из строки через запятую.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
