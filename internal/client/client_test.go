package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressTracker(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := newProgressTracker("a.mp4", start)

	p := tr.update(1000, 4000, start.Add(time.Second))
	assert.Equal(t, 25.0, p.Percent)
	assert.Equal(t, 1000.0, p.BytesPerSec)
	assert.Equal(t, 3*time.Second, p.ETA)

	// Instantaneous rate from the last interval only.
	p = tr.update(3000, 4000, start.Add(1500*time.Millisecond))
	assert.Equal(t, 75.0, p.Percent)
	assert.Equal(t, 4000.0, p.BytesPerSec)
	assert.Equal(t, 250*time.Millisecond, p.ETA)

	// Same instant: keep the previous rate.
	p = tr.update(3500, 4000, start.Add(1500*time.Millisecond))
	assert.Equal(t, 4000.0, p.BytesPerSec)
}

func TestURLRefresher_KeepsStaleURLOnFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var calls atomic.Int32
	fetch := func(context.Context) (*SignedURL, error) {
		n := calls.Add(1)
		if n == 2 {
			return nil, errors.New("server unavailable")
		}
		return &SignedURL{URL: fmt.Sprintf("https://bucket/video?sig=%d", n)}, nil
	}

	changes := make(chan string, 10)
	r := NewURLRefresher(fetch, 10*time.Millisecond, logger, func(s *SignedURL) { changes <- s.URL })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Equal(t, "https://bucket/video?sig=1", <-changes)
	assert.Equal(t, "https://bucket/video?sig=3", <-changes)
	cancel()
	require.NoError(t, <-done)

	var warned bool
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "keeping the previous one") {
			warned = true
		}
	}
	assert.True(t, warned)
	assert.NotNil(t, r.Current())
}

func TestURLRefresher_InitialFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := NewURLRefresher(func(context.Context) (*SignedURL, error) {
		return nil, errors.New("not found")
	}, time.Hour, logger, nil)

	assert.Error(t, r.Run(context.Background()))
	assert.Nil(t, r.Current())
}

func TestConfirmName(t *testing.T) {
	var out strings.Builder
	require.NoError(t, ConfirmName(strings.NewReader("Lectures\n"), &out, "folder", "Lectures"))
	assert.Contains(t, out.String(), `"Lectures"`)

	require.NoError(t, ConfirmName(strings.NewReader("Lectures\r\n"), &out, "folder", "Lectures"))
	require.NoError(t, ConfirmName(strings.NewReader("Lectures"), &out, "folder", "Lectures"))

	assert.ErrorIs(t, ConfirmName(strings.NewReader("lectures\n"), &out, "folder", "Lectures"), ErrNotConfirmed)
	assert.ErrorIs(t, ConfirmName(strings.NewReader(" Lectures\n"), &out, "folder", "Lectures"), ErrNotConfirmed)
	assert.Error(t, ConfirmName(strings.NewReader(""), &out, "folder", "Lectures"))
}

func TestStateStore_LoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store, err := NewStateStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Load())
	assert.Equal(t, State{Theme: ThemeLight, CompletedVideos: []string{}}, store.Snapshot())

	require.NoError(t, store.SetTheme(ThemeDark))
	assert.Error(t, store.SetTheme("sepia"))
	store.MarkCompleted("v1")
	store.MarkCompleted("v1")
	store.MarkCompleted("v2")
	store.Forget("v2")
	store.SetCurrentFolder("f1")
	store.SetSidebarScroll(-5)
	store.SetSidebarScroll(240)
	require.NoError(t, store.Save())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	reloaded, err := NewStateStore(path)
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, State{
		Theme:           ThemeDark,
		CompletedVideos: []string{"v1"},
		CurrentFolderID: "f1",
		SidebarScroll:   240,
	}, reloaded.Snapshot())
	assert.True(t, reloaded.IsCompleted("v1"))
	assert.False(t, reloaded.IsCompleted("v2"))
}

func TestStateStore_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"neon","sidebarScroll":3}`), 0o644))

	store, err := NewStateStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Load())
	assert.Equal(t, ThemeLight, store.Snapshot().Theme)
	assert.Equal(t, 3, store.Snapshot().SidebarScroll)

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	assert.Error(t, store.Load())
}

func TestNewStateStore_ExpandsHome(t *testing.T) {
	store, err := NewStateStore("")
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(store.Path(), "~"))
	assert.True(t, strings.HasSuffix(store.Path(), filepath.Join(".config", "vault", "state.json")))
}
