package library

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStreamURL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }
	f.objects.SetClock(func() time.Time { return now })

	folder, err := f.svc.CreateFolder(ctx, "Clips")
	require.NoError(t, err)
	videos, err := f.svc.Upload(ctx, folder.ID, []UploadFile{{Name: "a.mp4", Data: []byte("video bytes")}})
	require.NoError(t, err)

	first, err := f.svc.GetStreamURL(ctx, videos[0].ID)
	require.NoError(t, err)
	second, err := f.svc.GetStreamURL(ctx, videos[0].ID)
	require.NoError(t, err)

	assert.Equal(t, now.Add(2*time.Hour), first.ExpiresAt)
	assert.NotEqual(t, first.URL, second.URL)

	for _, u := range []string{first.URL, second.URL} {
		body, err := f.objects.Resolve(u)
		require.NoError(t, err)
		assert.Equal(t, "video bytes", string(body))
	}

	// Invalid from the expiry instant on.
	now = now.Add(2 * time.Hour)
	_, err = f.objects.Resolve(first.URL)
	assert.Error(t, err)
}

func TestGetStreamURL_NotFound(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.svc.GetStreamURL(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetVideosInFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	folder, err := f.svc.CreateFolder(ctx, "Two")
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, folder.ID, []UploadFile{
		{Name: "b.mp4", Data: []byte("b")},
		{Name: "a.mp4", Data: []byte("a")},
	})
	require.NoError(t, err)

	videos, err := f.svc.GetVideosInFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.Len(t, videos, 2)

	empty, err := f.svc.GetVideosInFolder(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGetFolderByName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	created, err := f.svc.CreateFolder(ctx, "Lectures")
	require.NoError(t, err)

	got, err := f.svc.GetFolderByName(ctx, "Lectures")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Lectures", got.Name)
	assert.Empty(t, got.Videos)

	_, err = f.svc.GetFolderByName(ctx, "lectures")
	assert.ErrorIs(t, err, ErrNotFound)
}
