package metadata

import (
	"errors"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupabaseStore_RequiresCredentials(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewSupabaseStore("", "key", logger)
	require.Error(t, err)

	_, err = NewSupabaseStore("https://example.supabase.co", "", logger)
	require.Error(t, err)
}

func TestClassifyRestErr(t *testing.T) {
	transport := &url.Error{Op: "Get", URL: "https://example.supabase.co/rest/v1/videos", Err: errors.New("connection refused")}
	assert.ErrorIs(t, classifyRestErr(transport), ErrUnavailable)

	plain := errors.New("(PGRST116) JSON object requested, multiple (or no) rows returned")
	got := classifyRestErr(plain)
	assert.Equal(t, plain, got)
	assert.NotErrorIs(t, got, ErrUnavailable)
}

func TestVideoRowModel(t *testing.T) {
	row := videoRow{ID: "v1", Name: "a.mp4", URL: "videos/k-a.mp4", Size: 4, Duration: 2.5, FolderID: "f1", CaptionsReady: true}
	v := row.model()

	assert.Equal(t, "v1", v.ID)
	assert.Equal(t, "videos/k-a.mp4", v.StorageKey)
	assert.Equal(t, "f1", v.FolderID)
	assert.True(t, v.CaptionsReady)
	assert.InDelta(t, 2.5, v.Duration, 1e-9)
}
