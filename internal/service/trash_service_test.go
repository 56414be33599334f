package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photodrive/internal/apperror"
	"photodrive/internal/domain"
)

func newTrashFixture() (*memStore, *fakeStorage, *AlbumService, *TrashService) {
	store := newMemStore()
	objects := newFakeStorage()
	albums := NewAlbumService(memAlbums{store}, memImages{store}, store)
	trash := NewTrashService(store, memAlbums{store}, memImages{store}, objects)
	return store, objects, albums, trash
}

func TestTrashListWithCountdown(t *testing.T) {
	store, _, albums, trash := newTrashFixture()
	ctx := context.Background()

	deletedAlbum, err := albums.Create(ctx, owner, "Old", "")
	require.NoError(t, err)
	activeAlbum, err := albums.Create(ctx, owner, "Active", "")
	require.NoError(t, err)
	image := seedImage(t, store, activeAlbum.AlbumID, "solo.jpg")

	// Альбом удален 10 дней назад, изображение — только что.
	require.NoError(t, store.SoftDeleteAlbum(ctx, deletedAlbum.AlbumID, time.Now().Add(-10*24*time.Hour)))
	require.NoError(t, store.SoftDeleteImage(ctx, image.ImageID, time.Now()))

	contents, err := trash.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, contents.Albums, 1)
	require.Len(t, contents.Images, 1)
	assert.Equal(t, 20, contents.Albums[0].DaysUntilPurge)
	assert.Equal(t, domain.RetentionDays, contents.Images[0].DaysUntilPurge)

	// Чужая корзина пуста.
	foreign, err := trash.List(ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, foreign.Albums)
	assert.Empty(t, foreign.Images)
}

func TestTrashListHidesCascadeDeletedImages(t *testing.T) {
	store, _, albums, trash := newTrashFixture()
	ctx := context.Background()

	album, err := albums.Create(ctx, owner, "Vacation", "")
	require.NoError(t, err)
	seedImage(t, store, album.AlbumID, "beach.jpg")
	require.NoError(t, albums.SoftDelete(ctx, owner, album.AlbumID))

	contents, err := trash.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, contents.Albums, 1)
	assert.Empty(t, contents.Images, "cascade-deleted images are represented by their album")
}

func TestTrashPurgeAlbum(t *testing.T) {
	store, objects, albums, trash := newTrashFixture()
	ctx := context.Background()

	album, err := albums.Create(ctx, owner, "Vacation", "")
	require.NoError(t, err)
	first := seedImage(t, store, album.AlbumID, "one.jpg")
	second := seedImage(t, store, album.AlbumID, "two.jpg")
	require.NoError(t, albums.SoftDelete(ctx, owner, album.AlbumID))

	report, err := trash.PurgeAlbum(ctx, owner, album.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AlbumsPurged)
	assert.Equal(t, 2, report.ImagesPurged)
	assert.Equal(t, 0, report.StoreDeleteFailures)
	assert.ElementsMatch(t, []string{first.StorageKey, second.StorageKey}, objects.deleted)

	_, err = albums.Get(ctx, owner, album.AlbumID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	// Повторная очистка того же альбома — NotFound.
	_, err = trash.PurgeAlbum(ctx, owner, album.AlbumID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestTrashPurgeActiveAlbumRejected(t *testing.T) {
	_, _, albums, trash := newTrashFixture()
	ctx := context.Background()

	album, err := albums.Create(ctx, owner, "Vacation", "")
	require.NoError(t, err)

	_, err = trash.PurgeAlbum(ctx, owner, album.AlbumID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInvalidState))
}

func TestTrashPurgeForbiddenForNonOwner(t *testing.T) {
	_, _, albums, trash := newTrashFixture()
	ctx := context.Background()

	album, err := albums.Create(ctx, owner, "Vacation", "")
	require.NoError(t, err)
	require.NoError(t, albums.SoftDelete(ctx, owner, album.AlbumID))

	_, err = trash.PurgeAlbum(ctx, guest, album.AlbumID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestTrashPurgeCountsStoreFailures(t *testing.T) {
	store, objects, albums, trash := newTrashFixture()
	ctx := context.Background()

	album, err := albums.Create(ctx, owner, "Vacation", "")
	require.NoError(t, err)
	image := seedImage(t, store, album.AlbumID, "stuck.jpg")
	objects.failKeys[image.StorageKey] = true
	require.NoError(t, albums.SoftDelete(ctx, owner, album.AlbumID))

	report, err := trash.PurgeAlbum(ctx, owner, album.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AlbumsPurged)
	assert.Equal(t, 1, report.ImagesPurged, "record removal proceeds despite store failure")
	assert.Equal(t, 1, report.StoreDeleteFailures)
}

func TestTrashSweepPurgesOnlyExpired(t *testing.T) {
	store, _, albums, trash := newTrashFixture()
	ctx := context.Background()

	expired, err := albums.Create(ctx, owner, "Expired", "")
	require.NoError(t, err)
	fresh, err := albums.Create(ctx, owner, "Fresh", "")
	require.NoError(t, err)
	keeper, err := albums.Create(ctx, owner, "Keeper", "")
	require.NoError(t, err)
	oldImage := seedImage(t, store, keeper.AlbumID, "old.jpg")
	newImage := seedImage(t, store, keeper.AlbumID, "new.jpg")

	require.NoError(t, store.SoftDeleteAlbum(ctx, expired.AlbumID, time.Now().Add(-31*24*time.Hour)))
	require.NoError(t, store.SoftDeleteAlbum(ctx, fresh.AlbumID, time.Now().Add(-29*24*time.Hour)))
	require.NoError(t, store.SoftDeleteImage(ctx, oldImage.ImageID, time.Now().Add(-31*24*time.Hour)))
	require.NoError(t, store.SoftDeleteImage(ctx, newImage.ImageID, time.Now().Add(-time.Hour)))

	report, err := trash.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AlbumsPurged)
	assert.Equal(t, 1, report.ImagesPurged)

	_, err = store.GetByAlbumID(ctx, expired.AlbumID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	_, err = store.GetByAlbumID(ctx, fresh.AlbumID)
	assert.NoError(t, err)
	_, err = store.GetByID(ctx, oldImage.ImageID.String())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	_, err = store.GetByID(ctx, newImage.ImageID.String())
	assert.NoError(t, err)

	// Повторный проход ничего не находит.
	again, err := trash.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.AlbumsPurged)
	assert.Equal(t, 0, again.ImagesPurged)
}

func TestTrashEmptyScopedToOwner(t *testing.T) {
	store, _, albums, trash := newTrashFixture()
	ctx := context.Background()

	mine, err := albums.Create(ctx, owner, "Mine", "")
	require.NoError(t, err)
	theirs, err := albums.Create(ctx, guest, "Theirs", "")
	require.NoError(t, err)
	require.NoError(t, albums.SoftDelete(ctx, owner, mine.AlbumID))
	require.NoError(t, albums.SoftDelete(ctx, guest, theirs.AlbumID))

	report, err := trash.Empty(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AlbumsPurged)

	_, err = store.GetByAlbumID(ctx, mine.AlbumID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	_, err = store.GetByAlbumID(ctx, theirs.AlbumID)
	assert.NoError(t, err, "another owner's trash must be untouched")
}

func TestTrashPurgeImage(t *testing.T) {
	store, objects, albums, trash := newTrashFixture()
	ctx := context.Background()

	album, err := albums.Create(ctx, owner, "Vacation", "")
	require.NoError(t, err)
	image := seedImage(t, store, album.AlbumID, "solo.jpg")
	require.NoError(t, store.SoftDeleteImage(ctx, image.ImageID, time.Now()))

	report, err := trash.PurgeImage(ctx, owner, image.ImageID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ImagesPurged)
	assert.Equal(t, []string{image.StorageKey}, objects.deleted)

	_, err = trash.PurgeImage(ctx, owner, image.ImageID.String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

// brokenTrashStore имитирует отказ базы при удалении записей
// перечисленных изображений.
type brokenTrashStore struct {
	*memStore
	failIDs map[uuid.UUID]bool
}

func (b *brokenTrashStore) DeleteImagePermanently(ctx context.Context, imageID uuid.UUID) error {
	if b.failIDs[imageID] {
		return errors.New("connection reset by peer")
	}
	return b.memStore.DeleteImagePermanently(ctx, imageID)
}

func TestTrashPurgeImageRecordDeleteFailure(t *testing.T) {
	store, objects, albums, _ := newTrashFixture()
	ctx := context.Background()

	album, err := albums.Create(ctx, owner, "Vacation", "")
	require.NoError(t, err)
	image := seedImage(t, store, album.AlbumID, "stuck.jpg")
	require.NoError(t, store.SoftDeleteImage(ctx, image.ImageID, time.Now()))

	broken := &brokenTrashStore{memStore: store, failIDs: map[uuid.UUID]bool{image.ImageID: true}}
	trash := NewTrashService(broken, memAlbums{store}, memImages{store}, objects)

	report, err := trash.PurgeImage(ctx, owner, image.ImageID.String())
	require.Error(t, err, "a surviving record must not look purged")
	assert.Equal(t, 0, report.ImagesPurged)

	// Запись на месте, повторный запуск сможет ее добрать.
	_, err = store.GetByID(ctx, image.ImageID.String())
	require.NoError(t, err)

	broken.failIDs = nil
	report, err = trash.PurgeImage(ctx, owner, image.ImageID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ImagesPurged)
}
