package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"photodrive/internal/apperror"
	"photodrive/internal/domain"
	"photodrive/internal/service/storage"
)

// memStore — хранилище в памяти с теми же переходами состояний,
// что и у Postgres-репозиториев.
type memStore struct {
	nextID   int64
	albums   map[string]*domain.Album
	images   map[uuid.UUID]*domain.Image
	comments map[uuid.UUID][]domain.Comment
}

func newMemStore() *memStore {
	return &memStore{
		albums:   make(map[string]*domain.Album),
		images:   make(map[uuid.UUID]*domain.Image),
		comments: make(map[uuid.UUID][]domain.Comment),
	}
}

func (m *memStore) createAlbum(ctx context.Context, album *domain.Album) error {
	for _, existing := range m.albums {
		if existing.OwnerID == album.OwnerID &&
			strings.EqualFold(existing.Name, album.Name) {
			return apperror.Conflict("album with this name already exists")
		}
	}
	m.nextID++
	album.ID = m.nextID
	album.CreatedAt = time.Now()
	album.UpdatedAt = album.CreatedAt
	stored := *album
	m.albums[album.AlbumID] = &stored
	return nil
}

func (m *memStore) GetByAlbumID(ctx context.Context, albumID string) (*domain.Album, error) {
	album, ok := m.albums[albumID]
	if !ok {
		return nil, apperror.NotFound("album", albumID)
	}
	return copyAlbum(album), nil
}

func (m *memStore) ListVisible(ctx context.Context, ownerID, email string) ([]domain.Album, error) {
	var out []domain.Album
	for _, album := range m.albums {
		if album.DeletedAt != nil {
			continue
		}
		if album.OwnerID == ownerID || sharedWith(album, email) {
			out = append(out, *copyAlbum(album))
		}
	}
	sortAlbums(out)
	return out, nil
}

func (m *memStore) ListShared(ctx context.Context, ownerID, email string) ([]domain.Album, error) {
	var out []domain.Album
	for _, album := range m.albums {
		if album.DeletedAt == nil && album.OwnerID != ownerID && sharedWith(album, email) {
			out = append(out, *copyAlbum(album))
		}
	}
	sortAlbums(out)
	return out, nil
}

func (m *memStore) ListFavorites(ctx context.Context, ownerID string) ([]domain.Album, error) {
	var out []domain.Album
	for _, album := range m.albums {
		if album.DeletedAt == nil && album.OwnerID == ownerID && album.IsFavorite {
			out = append(out, *copyAlbum(album))
		}
	}
	sortAlbums(out)
	return out, nil
}

func (m *memStore) listRecentAlbums(ctx context.Context, ownerID string, since time.Time) ([]domain.Album, error) {
	var out []domain.Album
	for _, album := range m.albums {
		if album.DeletedAt == nil && album.OwnerID == ownerID && !album.CreatedAt.Before(since) {
			out = append(out, *copyAlbum(album))
		}
	}
	sortAlbums(out)
	return out, nil
}

func (m *memStore) updateAlbum(ctx context.Context, albumID string, upd domain.AlbumUpdate) (*domain.Album, error) {
	album, ok := m.albums[albumID]
	if !ok {
		return nil, apperror.NotFound("album", albumID)
	}
	if upd.Name != nil {
		for id, existing := range m.albums {
			if id != albumID && existing.OwnerID == album.OwnerID &&
				strings.EqualFold(existing.Name, *upd.Name) {
				return nil, apperror.Conflict("album with this name already exists")
			}
		}
		album.Name = *upd.Name
	}
	if upd.Description != nil {
		album.Description = *upd.Description
	}
	if upd.IsFavorite != nil {
		album.IsFavorite = *upd.IsFavorite
	}
	album.UpdatedAt = time.Now()
	return copyAlbum(album), nil
}

func (m *memStore) AddShares(ctx context.Context, albumID string, emails []string) error {
	album, ok := m.albums[albumID]
	if !ok {
		return apperror.NotFound("album", albumID)
	}
	for _, email := range emails {
		if !sharedWith(album, email) {
			album.SharedEmails = append(album.SharedEmails, email)
		}
	}
	return nil
}

func (m *memStore) RemoveShare(ctx context.Context, albumID, email string) error {
	album, ok := m.albums[albumID]
	if !ok {
		return apperror.NotFound("album", albumID)
	}
	for i, existing := range album.SharedEmails {
		if strings.EqualFold(existing, email) {
			album.SharedEmails = append(album.SharedEmails[:i], album.SharedEmails[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("share", email)
}

func (m *memStore) createImage(ctx context.Context, image *domain.Image) error {
	if _, ok := m.albums[image.AlbumID]; !ok {
		return apperror.NotFound("album", image.AlbumID)
	}
	m.nextID++
	image.ID = m.nextID
	image.UploadedAt = time.Now()
	image.UpdatedAt = image.UploadedAt
	stored := *image
	m.images[image.ImageID] = &stored
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*domain.Image, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.NotFound("image", id)
	}
	image, ok := m.images[parsed]
	if !ok {
		return nil, apperror.NotFound("image", id)
	}
	return copyImage(image), nil
}

func (m *memStore) List(ctx context.Context, filter domain.ImageFilter) ([]domain.Image, error) {
	var out []domain.Image
	for _, image := range m.images {
		if image.DeletedAt != nil {
			continue
		}
		if filter.AlbumID != "" && image.AlbumID != filter.AlbumID {
			continue
		}
		if len(filter.AlbumIDs) > 0 && !containsString(filter.AlbumIDs, image.AlbumID) {
			continue
		}
		if filter.IsFavorite != nil && image.IsFavorite != *filter.IsFavorite {
			continue
		}
		if len(filter.Tags) > 0 && !tagsOverlap(image.Tags, filter.Tags) {
			continue
		}
		if filter.Person != "" && !containsFold(image.Person, filter.Person) {
			continue
		}
		if filter.Search != "" && !matchesSearch(image, filter.Search) {
			continue
		}
		out = append(out, *copyImage(image))
	}
	sortFiltered(out, filter.SortBy)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func tagsOverlap(have pq.StringArray, want []string) bool {
	for _, tag := range want {
		if containsString(have, tag) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matchesSearch(image *domain.Image, search string) bool {
	if containsFold(image.Name, search) || containsFold(image.Person, search) {
		return true
	}
	for _, tag := range image.Tags {
		if containsFold(tag, search) {
			return true
		}
	}
	return false
}

func sortFiltered(images []domain.Image, sortBy string) {
	switch sortBy {
	case "oldest":
		sort.Slice(images, func(i, j int) bool { return images[i].UploadedAt.Before(images[j].UploadedAt) })
	case "name":
		sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	case "size":
		sort.Slice(images, func(i, j int) bool { return images[i].SizeBytes > images[j].SizeBytes })
	default:
		sort.Slice(images, func(i, j int) bool { return images[i].UploadedAt.After(images[j].UploadedAt) })
	}
}

func (m *memStore) ListByAlbum(ctx context.Context, albumID string) ([]domain.Image, error) {
	var out []domain.Image
	for _, image := range m.images {
		if image.AlbumID == albumID {
			out = append(out, *copyImage(image))
		}
	}
	sortImages(out)
	return out, nil
}

func (m *memStore) ListFavoritesInAlbums(ctx context.Context, albumIDs []string) ([]domain.Image, error) {
	var out []domain.Image
	for _, image := range m.images {
		if image.DeletedAt == nil && image.IsFavorite && containsString(albumIDs, image.AlbumID) {
			out = append(out, *copyImage(image))
		}
	}
	sortImages(out)
	return out, nil
}

func (m *memStore) listRecentImages(ctx context.Context, albumIDs []string, since time.Time, limit int) ([]domain.Image, error) {
	var out []domain.Image
	for _, image := range m.images {
		if image.DeletedAt == nil && containsString(albumIDs, image.AlbumID) && !image.UploadedAt.Before(since) {
			out = append(out, *copyImage(image))
		}
	}
	sortImages(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) updateImage(ctx context.Context, imageID uuid.UUID, upd domain.ImageUpdate) (*domain.Image, error) {
	image, ok := m.images[imageID]
	if !ok {
		return nil, apperror.NotFound("image", imageID.String())
	}
	if upd.Name != nil {
		image.Name = *upd.Name
	}
	if upd.Tags != nil {
		image.Tags = pq.StringArray(upd.Tags)
	}
	if upd.Person != nil {
		image.Person = *upd.Person
	}
	if upd.IsFavorite != nil {
		image.IsFavorite = *upd.IsFavorite
	}
	image.UpdatedAt = time.Now()
	return copyImage(image), nil
}

func (m *memStore) AddComment(ctx context.Context, comment *domain.Comment) error {
	if _, ok := m.images[comment.ImageID]; !ok {
		return apperror.NotFound("image", comment.ImageID.String())
	}
	m.nextID++
	comment.ID = m.nextID
	comment.CreatedAt = time.Now()
	m.comments[comment.ImageID] = append(m.comments[comment.ImageID], *comment)
	return nil
}

func (m *memStore) GetComments(ctx context.Context, imageID uuid.UUID) ([]domain.Comment, error) {
	return append([]domain.Comment{}, m.comments[imageID]...), nil
}

func (m *memStore) SoftDeleteAlbum(ctx context.Context, albumID string, now time.Time) error {
	album, ok := m.albums[albumID]
	if !ok {
		return apperror.NotFound("album", albumID)
	}
	if album.DeletedAt != nil {
		return apperror.InvalidState("album is already in trash")
	}
	album.DeletedAt = &now
	for _, image := range m.images {
		if image.AlbumID == albumID && image.DeletedAt == nil {
			stamp := now
			image.DeletedAt = &stamp
		}
	}
	return nil
}

func (m *memStore) RestoreAlbum(ctx context.Context, albumID string) error {
	album, ok := m.albums[albumID]
	if !ok {
		return apperror.NotFound("album", albumID)
	}
	if album.DeletedAt == nil {
		return apperror.InvalidState("album is not in trash")
	}
	album.DeletedAt = nil
	for _, image := range m.images {
		if image.AlbumID == albumID {
			image.DeletedAt = nil
		}
	}
	return nil
}

func (m *memStore) SoftDeleteImage(ctx context.Context, imageID uuid.UUID, now time.Time) error {
	image, ok := m.images[imageID]
	if !ok {
		return apperror.NotFound("image", imageID.String())
	}
	if image.DeletedAt != nil {
		return apperror.InvalidState("image is already in trash")
	}
	image.DeletedAt = &now
	return nil
}

func (m *memStore) RestoreImage(ctx context.Context, imageID uuid.UUID) error {
	image, ok := m.images[imageID]
	if !ok {
		return apperror.NotFound("image", imageID.String())
	}
	if image.DeletedAt == nil {
		return apperror.InvalidState("image is not in trash")
	}
	image.DeletedAt = nil
	return nil
}

func (m *memStore) DeleteImagePermanently(ctx context.Context, imageID uuid.UUID) error {
	if _, ok := m.images[imageID]; !ok {
		return apperror.NotFound("image", imageID.String())
	}
	delete(m.images, imageID)
	delete(m.comments, imageID)
	return nil
}

func (m *memStore) DeleteAlbumPermanently(ctx context.Context, albumID string) error {
	if _, ok := m.albums[albumID]; !ok {
		return apperror.NotFound("album", albumID)
	}
	for id, image := range m.images {
		if image.AlbumID == albumID {
			delete(m.images, id)
			delete(m.comments, id)
		}
	}
	delete(m.albums, albumID)
	return nil
}

func (m *memStore) FindPurgeableAlbums(ctx context.Context, ownerID string, cutoff *time.Time) ([]domain.Album, error) {
	var out []domain.Album
	for _, album := range m.albums {
		if album.DeletedAt == nil {
			continue
		}
		if ownerID != "" && album.OwnerID != ownerID {
			continue
		}
		if cutoff != nil && album.DeletedAt.After(*cutoff) {
			continue
		}
		out = append(out, *copyAlbum(album))
	}
	sortAlbums(out)
	return out, nil
}

func (m *memStore) FindPurgeableImages(ctx context.Context, ownerID string, cutoff *time.Time) ([]domain.Image, error) {
	var out []domain.Image
	for _, image := range m.images {
		if image.DeletedAt == nil {
			continue
		}
		album, ok := m.albums[image.AlbumID]
		if !ok {
			continue
		}
		if ownerID != "" && album.OwnerID != ownerID {
			continue
		}
		if cutoff != nil && image.DeletedAt.After(*cutoff) {
			continue
		}
		out = append(out, *copyImage(image))
	}
	sortImages(out)
	return out, nil
}

func (m *memStore) ListAlbumImages(ctx context.Context, albumID string) ([]domain.Image, error) {
	return m.ListByAlbum(ctx, albumID)
}

func (m *memStore) ListTrashedAlbums(ctx context.Context, ownerID string) ([]domain.Album, error) {
	var out []domain.Album
	for _, album := range m.albums {
		if album.DeletedAt != nil && album.OwnerID == ownerID {
			trashed := *copyAlbum(album)
			out = append(out, trashed)
		}
	}
	sortAlbums(out)
	return out, nil
}

func (m *memStore) ListTrashedImages(ctx context.Context, ownerID string) ([]domain.Image, error) {
	var out []domain.Image
	for _, image := range m.images {
		if image.DeletedAt == nil {
			continue
		}
		album, ok := m.albums[image.AlbumID]
		if !ok || album.DeletedAt != nil || album.OwnerID != ownerID {
			continue
		}
		out = append(out, *copyImage(image))
	}
	sortImages(out)
	return out, nil
}

func copyAlbum(album *domain.Album) *domain.Album {
	out := *album
	out.IsDeleted = album.DeletedAt != nil
	out.SharedEmails = append(pq.StringArray(nil), album.SharedEmails...)
	if album.DeletedAt != nil {
		stamp := *album.DeletedAt
		out.DeletedAt = &stamp
	}
	return &out
}

func copyImage(image *domain.Image) *domain.Image {
	out := *image
	out.IsDeleted = image.DeletedAt != nil
	out.Tags = append(pq.StringArray(nil), image.Tags...)
	if image.DeletedAt != nil {
		stamp := *image.DeletedAt
		out.DeletedAt = &stamp
	}
	return &out
}

func sortAlbums(albums []domain.Album) {
	sort.Slice(albums, func(i, j int) bool { return albums[i].ID < albums[j].ID })
}

func sortImages(images []domain.Image) {
	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })
}

func sharedWith(album *domain.Album, email string) bool {
	for _, shared := range album.SharedEmails {
		if strings.EqualFold(shared, email) {
			return true
		}
	}
	return false
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// memAlbums и memImages дают общему хранилищу имена методов интерфейсов
// AlbumStore и ImageStore там, где сигнатуры конфликтуют.
type memAlbums struct{ *memStore }

func (a memAlbums) Create(ctx context.Context, album *domain.Album) error {
	return a.createAlbum(ctx, album)
}

func (a memAlbums) Update(ctx context.Context, albumID string, upd domain.AlbumUpdate) (*domain.Album, error) {
	return a.updateAlbum(ctx, albumID, upd)
}

func (a memAlbums) ListRecent(ctx context.Context, ownerID string, since time.Time) ([]domain.Album, error) {
	return a.listRecentAlbums(ctx, ownerID, since)
}

type memImages struct{ *memStore }

func (i memImages) Create(ctx context.Context, image *domain.Image) error {
	return i.createImage(ctx, image)
}

func (i memImages) Update(ctx context.Context, imageID uuid.UUID, upd domain.ImageUpdate) (*domain.Image, error) {
	return i.updateImage(ctx, imageID, upd)
}

func (i memImages) ListRecent(ctx context.Context, albumIDs []string, since time.Time, limit int) ([]domain.Image, error) {
	return i.listRecentImages(ctx, albumIDs, since, limit)
}

// fakeStorage фиксирует вызовы удаления и умеет отказывать по ключам.
type fakeStorage struct {
	deleted  []string
	failKeys map[string]bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{failKeys: make(map[string]bool)}
}

func (f *fakeStorage) UploadBytes(key string, data []byte) (*storage.UploadResult, error) {
	return &storage.UploadResult{
		URL:       f.PublicURL(key),
		Key:       key,
		SizeBytes: int64(len(data)),
	}, nil
}

func (f *fakeStorage) DeleteObject(key string) error {
	if f.failKeys[key] {
		return fmt.Errorf("simulated storage failure for %s", key)
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.example.com/upload/" + key
}
