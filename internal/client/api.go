// Package client talks to the vault HTTP API and holds the command-line
// client's local state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"videothingy/vault/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// SignedURL is a presigned URL together with the instant it stops working.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// API is a typed client for every endpoint under /api.
type API struct {
	BaseURL string
	HTTP    *http.Client
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &API{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

func (a *API) ListFolders(ctx context.Context) ([]models.FolderWithVideos, error) {
	var out []models.FolderWithVideos
	if err := a.do(ctx, http.MethodGet, "/folders", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	var out models.Folder
	if err := a.do(ctx, http.MethodPost, "/folders", bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) GetFolderByName(ctx context.Context, name string) (*models.Folder, error) {
	var out models.Folder
	if err := a.do(ctx, http.MethodGet, "/folders/name/"+url.PathEscape(name), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeleteFolder(ctx context.Context, folderID string) error {
	return a.do(ctx, http.MethodDelete, "/folders/"+url.PathEscape(folderID), nil, "", nil)
}

func (a *API) GetVideosInFolder(ctx context.Context, folderID string) ([]models.Video, error) {
	var out []models.Video
	if err := a.do(ctx, http.MethodGet, "/videos/folder/"+url.PathEscape(folderID), nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) GetStreamURL(ctx context.Context, videoID string) (*SignedURL, error) {
	var out SignedURL
	if err := a.do(ctx, http.MethodGet, "/videos/stream/"+url.PathEscape(videoID), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeleteVideo(ctx context.Context, videoID string) error {
	return a.do(ctx, http.MethodDelete, "/videos/"+url.PathEscape(videoID), nil, "", nil)
}

// GenerateCaptions blocks until the server has finished transcribing and
// returns the caption object key.
func (a *API) GenerateCaptions(ctx context.Context, videoID string) (string, error) {
	var out struct {
		CaptionKey string `json:"captionKey"`
	}
	err := a.do(ctx, http.MethodPost, "/videos/generate-captions/"+url.PathEscape(videoID), nil, "", &out)
	return out.CaptionKey, err
}

// GetCaptionURL returns nil when the video has no captions yet.
func (a *API) GetCaptionURL(ctx context.Context, videoID string) (*SignedURL, error) {
	var out struct {
		CaptionURL *string    `json:"captionUrl"`
		ExpiresAt  *time.Time `json:"expiresAt"`
	}
	if err := a.do(ctx, http.MethodGet, "/videos/captions/"+url.PathEscape(videoID), nil, "", &out); err != nil {
		return nil, err
	}
	if out.CaptionURL == nil {
		return nil, nil
	}
	signed := &SignedURL{URL: *out.CaptionURL}
	if out.ExpiresAt != nil {
		signed.ExpiresAt = *out.ExpiresAt
	}
	return signed, nil
}

func (a *API) GetCaptionStatus(ctx context.Context, videoID string) (bool, error) {
	var out struct {
		CaptionsReady bool `json:"captionsReady"`
	}
	err := a.do(ctx, http.MethodGet, "/videos/captions/status/"+url.PathEscape(videoID), nil, "", &out)
	return out.CaptionsReady, err
}

// UploadFile sends one file as a single-file upload request. onProgress, if
// set, is called with the number of file bytes sent so far and the file size.
func (a *API) UploadFile(ctx context.Context, folderID, path string, onProgress func(sent, total int64)) ([]models.Video, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()

	head, tail, contentType, err := multipartFrame("videos", filepath.Base(path))
	if err != nil {
		return nil, err
	}

	var file io.Reader = f
	if onProgress != nil {
		file = &progressReader{r: f, total: size, report: onProgress}
	}
	body := io.MultiReader(bytes.NewReader(head), file, bytes.NewReader(tail))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/videos/upload/"+url.PathEscape(folderID), body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = int64(len(head)) + size + int64(len(tail))
	req.Header.Set("Content-Type", contentType)

	var out []models.Video
	if err := a.send(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// multipartFrame returns the bytes surrounding a single file part, so the
// file itself can be streamed and the request length known up front.
func multipartFrame(field, filename string) (head, tail []byte, contentType string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	partType := mime.TypeByExtension(filepath.Ext(filename))
	if partType == "" {
		partType = "application/octet-stream"
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", partType)
	if _, err := mw.CreatePart(h); err != nil {
		return nil, nil, "", err
	}
	headLen := buf.Len()
	if err := mw.Close(); err != nil {
		return nil, nil, "", err
	}

	all := buf.Bytes()
	return bytes.Clone(all[:headLen]), bytes.Clone(all[headLen:]), mw.FormDataContentType(), nil
}

type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent, p.total)
	}
	return n, err
}

func (a *API) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return a.send(req, out)
}

func (a *API) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := a.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
