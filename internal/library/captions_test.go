package library

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videothingy/vault/models"
)

func uploadOne(t *testing.T, f *fixture, name string) models.Video {
	t.Helper()
	ctx := context.Background()
	folder, err := f.svc.CreateFolder(ctx, "Folder for "+name)
	require.NoError(t, err)
	videos, err := f.svc.Upload(ctx, folder.ID, []UploadFile{{Name: name, ContentType: "video/mp4", Data: []byte("media")}})
	require.NoError(t, err)
	return videos[0]
}

func TestGenerateCaptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	v := uploadOne(t, f, "talk.webm")

	url, err := f.svc.GetCaptionURL(ctx, v.ID)
	require.NoError(t, err)
	assert.Nil(t, url)

	key, err := f.svc.GenerateCaptions(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "captions/"+v.ID+".vtt", key)
	assert.Equal(t, ".webm", filepath.Ext(f.transcriber.lastInput))

	info, err := f.objects.Head(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "text/vtt", info.ContentType)

	rc, err := f.objects.Get(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Contains(t, string(body), "WEBVTT")

	ready, err := f.svc.GetCaptionStatus(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, ready)

	url, err = f.svc.GetCaptionURL(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, url)
	assert.WithinDuration(t, time.Now().Add(time.Hour), url.ExpiresAt, time.Minute)
	resolved, err := f.objects.Resolve(url.URL)
	require.NoError(t, err)
	assert.Equal(t, body, resolved)
}

func TestGenerateCaptions_TranscriberFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	v := uploadOne(t, f, "talk.mp4")
	f.transcriber.err = errors.New("exit status 1")

	_, err := f.svc.GenerateCaptions(ctx, v.ID)
	require.ErrorIs(t, err, ErrCaptioningFailed)

	ready, err := f.svc.GetCaptionStatus(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, ready)

	_, err = f.objects.Head(ctx, models.CaptionKey(v.ID))
	assert.Error(t, err)
}

func TestGenerateCaptions_MissingObject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	v := uploadOne(t, f, "talk.mp4")
	require.NoError(t, f.objects.Delete(ctx, v.StorageKey))

	_, err := f.svc.GenerateCaptions(ctx, v.ID)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Empty(t, f.transcriber.lastInput)
}

func TestCaptionOperations_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})

	_, err := f.svc.GenerateCaptions(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.GetCaptionURL(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.GetCaptionStatus(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
