package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videothingy/vault/handlers"
	"videothingy/vault/internal/client"
	"videothingy/vault/internal/library"
	"videothingy/vault/internal/metadata"
	"videothingy/vault/internal/metrics"
	"videothingy/vault/internal/storage"
)

type constProber struct{}

func (constProber) ProbeDuration(context.Context, []byte) (float64, error) { return 65, nil }

type noTranscriber struct{}

func (noTranscriber) Transcribe(context.Context, string, string) (string, error) {
	return "", os.ErrNotExist
}

func newTestCLI(t *testing.T, stdin string) (*cli, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	logger, _ := test.NewNullLogger()

	svc := library.New(metadata.NewMemoryStore(), storage.NewMemoryStore(), constProber{}, noTranscriber{},
		metrics.New(prometheus.NewRegistry()), logger, library.Config{})
	app := fiber.New(fiber.Config{Immutable: true})
	handlers.NewApplicationHandler(svc, logger).RegisterRoutes(app.Group("/api"))
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)

	state, err := client.NewStateStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	require.NoError(t, state.Load())

	out := &bytes.Buffer{}
	return &cli{
		api:    client.NewAPI(srv.URL+"/api", srv.Client()),
		state:  state,
		logger: logger,
		in:     strings.NewReader(stdin),
		out:    out,
	}, out
}

func TestCLI_FolderWorkflow(t *testing.T) {
	ctx := context.Background()
	c, out := newTestCLI(t, "Lectures\n")
	dir := t.TempDir()
	video := filepath.Join(dir, "intro.mp4")
	require.NoError(t, os.WriteFile(video, []byte("not really a video"), 0o644))

	require.NoError(t, c.run(ctx, []string{"mkdir", "Lectures"}))
	assert.Contains(t, out.String(), `Created folder "Lectures"`)

	require.NoError(t, c.run(ctx, []string{"upload", "Lectures", video}))
	assert.Contains(t, out.String(), "✓ intro.mp4 uploaded")

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"videos", "Lectures"}))
	assert.Contains(t, out.String(), "intro.mp4  1:05")
	assert.NotEmpty(t, c.state.Snapshot().CurrentFolderID)

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"folders"}))
	assert.Contains(t, out.String(), "* Lectures")

	require.NoError(t, c.run(ctx, []string{"rm-folder", "Lectures"}))
	assert.Contains(t, out.String(), `Deleted folder "Lectures"`)
	assert.Empty(t, c.state.Snapshot().CurrentFolderID)

	err := c.run(ctx, []string{"videos", "Lectures"})
	assert.True(t, client.IsNotFound(err))
}

func TestCLI_DeleteRequiresExactName(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCLI(t, "lectures\n")

	require.NoError(t, c.run(ctx, []string{"mkdir", "Lectures"}))
	assert.ErrorIs(t, c.run(ctx, []string{"rm-folder", "Lectures"}), client.ErrNotConfirmed)

	_, err := c.api.GetFolderByName(ctx, "Lectures")
	assert.NoError(t, err)
}

func TestCLI_StateCommands(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCLI(t, "")

	require.NoError(t, c.run(ctx, []string{"theme", "dark"}))
	require.NoError(t, c.run(ctx, []string{"watched", "v1"}))
	assert.Error(t, c.run(ctx, []string{"theme", "blue"}))

	reloaded, err := client.NewStateStore(c.state.Path())
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, "dark", reloaded.Snapshot().Theme)
	assert.True(t, reloaded.IsCompleted("v1"))
}

func TestCLI_Usage(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCLI(t, "")

	assert.ErrorIs(t, c.run(ctx, nil), errUsage)
	assert.ErrorIs(t, c.run(ctx, []string{"mkdir"}), errUsage)
	assert.ErrorIs(t, c.run(ctx, []string{"frobnicate"}), errUsage)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "2:00", formatDuration(120))
	assert.Equal(t, "1:01:01", formatDuration(3661))
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "5.0 MB", formatBytes(5*1024*1024))
}
