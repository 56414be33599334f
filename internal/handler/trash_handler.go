package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"photodrive/internal/service"
)

// TrashHandler обрабатывает маршруты корзины и окончательной очистки.
type TrashHandler struct {
	trashService *service.TrashService
}

func NewTrashHandler(trashService *service.TrashService) *TrashHandler {
	return &TrashHandler{trashService: trashService}
}

// List возвращает содержимое корзины текущего пользователя.
func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	contents, err := h.trashService.List(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contents)
}

// Empty безвозвратно очищает корзину текущего пользователя.
func (h *TrashHandler) Empty(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	report, err := h.trashService.Empty(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Cleanup вручную запускает проход очистки по истечении окна хранения.
// Тот же код выполняется фоновым тикером раз в час.
func (h *TrashHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	if _, ok := identity(w, r); !ok {
		return
	}
	report, err := h.trashService.Sweep(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// PurgeAlbum безвозвратно удаляет альбом из корзины.
func (h *TrashHandler) PurgeAlbum(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	report, err := h.trashService.PurgeAlbum(r.Context(), id, chi.URLParam(r, "albumID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// PurgeImage безвозвратно удаляет изображение из корзины.
func (h *TrashHandler) PurgeImage(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	report, err := h.trashService.PurgeImage(r.Context(), id, chi.URLParam(r, "imageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
