package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videothingy/vault/config"
	"videothingy/vault/handlers"
	"videothingy/vault/internal/library"
	"videothingy/vault/internal/metadata"
	"videothingy/vault/internal/metrics"
	"videothingy/vault/internal/storage"
	"videothingy/vault/models"
)

func TestApp_Surfaces(t *testing.T) {
	logger, _ := test.NewNullLogger()
	uploads := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "legacy.mp4"), []byte("old"), 0o644))

	cfg := &config.Config{
		Server: config.ServerConfig{FrontAPI: "*", BodyLimitMB: 1, UploadsDir: uploads},
	}
	reg := prometheus.NewRegistry()
	svc := library.New(metadata.NewMemoryStore(), storage.NewMemoryStore(), nil, nil, metrics.New(reg), logger, library.Config{})
	app := newApp(context.Background(), cfg, handlers.NewApplicationHandler(svc, logger), reg, logger)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/folders", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "vault_caption_duration_seconds")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/uploads/legacy.mp4", nil))
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "old", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/videos/stream/unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

type fixedProber struct{}

func (fixedProber) ProbeDuration(context.Context, []byte) (float64, error) { return 120, nil }

func newTestApp(t *testing.T, bodyLimitMB int) *fiber.App {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{
		Server: config.ServerConfig{FrontAPI: "*", BodyLimitMB: bodyLimitMB, UploadsDir: t.TempDir()},
	}
	reg := prometheus.NewRegistry()
	svc := library.New(metadata.NewMemoryStore(), storage.NewMemoryStore(), fixedProber{}, nil, metrics.New(reg), logger, library.Config{})
	return newApp(context.Background(), cfg, handlers.NewApplicationHandler(svc, logger), reg, logger)
}

func uploadBody(t *testing.T, name string, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(handlers.UploadField, name)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x42}, size))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestApp_BodyLimitAdmitsLargeUploads(t *testing.T) {
	app := newTestApp(t, 1024)

	req := httptest.NewRequest(http.MethodPost, "/api/folders", bytes.NewBufferString(`{"name":"Lectures"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var folder models.Folder
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&folder))

	const size = 5 * 1024 * 1024
	body, contentType := uploadBody(t, "intro.mp4", size)
	req = httptest.NewRequest(http.MethodPost, "/api/videos/upload/"+folder.ID, body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created []models.Video
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.Len(t, created, 1)
	assert.EqualValues(t, size, created[0].Size)
}

func TestApp_BodyLimitRejectsOversizedUploads(t *testing.T) {
	app := newTestApp(t, 1)

	body, contentType := uploadBody(t, "big.mp4", 2*1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/api/videos/upload/any", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	if err == nil {
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	}
}

func TestApp_PanicsBecomeGenericServerErrors(t *testing.T) {
	app := newTestApp(t, 1)
	app.Get("/explode", func(*fiber.Ctx) error {
		panic("mongo: connection string leaked")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/explode", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Internal server error"}`, string(body))
}
