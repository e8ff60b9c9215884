package library

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videothingy/vault/internal/metadata"
)

func TestCreateFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})

	folder, err := f.svc.CreateFolder(ctx, "  Lectures ")
	require.NoError(t, err)
	assert.Equal(t, "Lectures", folder.Name)
	assert.NotNil(t, folder.Videos)
	assert.Empty(t, folder.Videos)

	_, err = f.svc.CreateFolder(ctx, "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListFolders_EmbedsVideosSortedByName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	b, err := f.svc.CreateFolder(ctx, "B")
	require.NoError(t, err)
	_, err = f.svc.CreateFolder(ctx, "A")
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, b.ID, []UploadFile{
		{Name: "zeta.mp4", Data: []byte("z")},
		{Name: "alpha.mp4", Data: []byte("a")},
	})
	require.NoError(t, err)

	folders, err := f.svc.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "A", folders[0].Name)
	assert.Empty(t, folders[0].Videos)
	require.Len(t, folders[1].Videos, 2)
	assert.Equal(t, "alpha.mp4", folders[1].Videos[0].Name)
	assert.Equal(t, "zeta.mp4", folders[1].Videos[1].Name)
}

func TestDeleteFolder_Cascades(t *testing.T) {
	ctx := context.Background()
	uploads := t.TempDir()
	f := newFixture(t, Config{UploadsDir: uploads})
	folder, err := f.svc.CreateFolder(ctx, "Doomed")
	require.NoError(t, err)
	videos, err := f.svc.Upload(ctx, folder.ID, []UploadFile{
		{Name: "one.mp4", Data: []byte("1")},
		{Name: "two.mp4", Data: []byte("2")},
		{Name: "three.mp4", Data: []byte("3")},
	})
	require.NoError(t, err)
	_, err = f.svc.GenerateCaptions(ctx, videos[0].ID)
	require.NoError(t, err)

	local := filepath.Join(uploads, path.Base(videos[1].StorageKey))
	require.NoError(t, os.WriteFile(local, []byte("legacy"), 0o644))

	require.NoError(t, f.svc.DeleteFolder(ctx, folder.ID))

	remaining, err := f.store.ListVideosByFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.Empty(t, f.objects.Keys())
	assert.NoFileExists(t, local)

	_, err = f.svc.GetFolderByName(ctx, "Doomed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteFolder_KeepsFolderWhenCleanupFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	folder, err := f.svc.CreateFolder(ctx, "Sticky")
	require.NoError(t, err)
	videos, err := f.svc.Upload(ctx, folder.ID, []UploadFile{
		{Name: "keep.mp4", Data: []byte("k")},
		{Name: "gone.mp4", Data: []byte("g")},
	})
	require.NoError(t, err)

	f.svc.objects = &deleteFailingObjects{ObjectStore: f.objects, substr: "keep.mp4"}

	err = f.svc.DeleteFolder(ctx, folder.ID)
	require.ErrorIs(t, err, ErrStorage)

	_, err = f.store.GetFolder(ctx, folder.ID)
	require.NoError(t, err)
	_, err = f.store.GetVideo(ctx, videos[0].ID)
	require.NoError(t, err)
	_, err = f.store.GetVideo(ctx, videos[1].ID)
	assert.ErrorIs(t, err, metadata.ErrNotFound)

	// A retry with storage back to normal finishes the job.
	f.svc.objects = f.objects
	require.NoError(t, f.svc.DeleteFolder(ctx, folder.ID))
	assert.Empty(t, f.objects.Keys())
}

func TestDeleteFolder_NotFound(t *testing.T) {
	f := newFixture(t, Config{})
	assert.ErrorIs(t, f.svc.DeleteFolder(context.Background(), "missing"), ErrNotFound)
}

func TestDeleteVideo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	v := uploadOne(t, f, "solo.mp4")

	require.NoError(t, f.svc.DeleteVideo(ctx, v.ID))

	_, err := f.objects.Head(ctx, v.StorageKey)
	assert.Error(t, err)
	folder, err := f.store.GetFolder(ctx, v.FolderID)
	require.NoError(t, err)
	assert.Empty(t, folder.Videos)

	// The second of two racing deletes reports not-found.
	assert.ErrorIs(t, f.svc.DeleteVideo(ctx, v.ID), ErrNotFound)
}

// Create "Lectures", upload a 5 MiB two-minute file, list it, delete the folder.
func TestLibraryScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})

	folder, err := f.svc.CreateFolder(ctx, "Lectures")
	require.NoError(t, err)
	byName, err := f.svc.GetFolderByName(ctx, "Lectures")
	require.NoError(t, err)
	assert.Equal(t, folder.ID, byName.ID)
	assert.Empty(t, byName.Videos)

	_, err = f.svc.Upload(ctx, folder.ID, []UploadFile{{Name: "intro.mp4", ContentType: "video/mp4", Data: make([]byte, 5*1024*1024)}})
	require.NoError(t, err)

	videos, err := f.svc.GetVideosInFolder(ctx, folder.ID)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "intro.mp4", videos[0].Name)
	assert.Equal(t, int64(5242880), videos[0].Size)
	assert.Equal(t, 120.0, videos[0].Duration)

	require.NoError(t, f.svc.DeleteFolder(ctx, folder.ID))
	_, err = f.svc.GetFolderByName(ctx, "Lectures")
	assert.ErrorIs(t, err, ErrNotFound)
}
