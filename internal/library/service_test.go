package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"videothingy/vault/internal/metadata"
	"videothingy/vault/internal/metrics"
	"videothingy/vault/internal/storage"
)

type fakeProber struct {
	duration float64
	err      error
	calls    int
}

func (p *fakeProber) ProbeDuration(_ context.Context, data []byte) (float64, error) {
	p.calls++
	if p.err != nil {
		return 0, p.err
	}
	if strings.HasPrefix(string(data), "corrupt") {
		return 0, errors.New("invalid data found when processing input")
	}
	return p.duration, nil
}

type fakeTranscriber struct {
	track     string
	err       error
	lastInput string
}

func (tr *fakeTranscriber) Transcribe(_ context.Context, inputPath, outputDir string) (string, error) {
	tr.lastInput = inputPath
	if tr.err != nil {
		return "", tr.err
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	out := filepath.Join(outputDir, base+".vtt")
	if err := os.WriteFile(out, []byte(tr.track), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

type fixture struct {
	svc         *Service
	store       *metadata.MemoryStore
	objects     *storage.MemoryStore
	prober      *fakeProber
	transcriber *fakeTranscriber
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		store:       metadata.NewMemoryStore(),
		objects:     storage.NewMemoryStore(),
		prober:      &fakeProber{duration: 120},
		transcriber: &fakeTranscriber{track: "WEBVTT\n\n00:00.000 --> 00:01.000\nhello\n"},
	}
	f.svc = New(f.store, f.objects, f.prober, f.transcriber, metrics.New(prometheus.NewRegistry()), logger, cfg)
	return f
}

func TestNew_Defaults(t *testing.T) {
	f := newFixture(t, Config{})
	assert.Equal(t, DefaultStreamURLTTL, f.svc.cfg.StreamURLTTL)
	assert.Equal(t, DefaultCaptionURLTTL, f.svc.cfg.CaptionURLTTL)
	assert.Equal(t, 50, f.svc.MaxUploadFiles())
}

// linkFailingStore fails every attempt to link a video into a folder.
type linkFailingStore struct {
	*metadata.MemoryStore
}

func (s *linkFailingStore) AddVideoToFolder(context.Context, string, string) error {
	return fmt.Errorf("link: %w", metadata.ErrUnavailable)
}

type putFailingObjects struct {
	storage.ObjectStore
}

func (o *putFailingObjects) Put(context.Context, string, []byte, string) error {
	return errors.New("connection reset by peer")
}

// deleteFailingObjects fails deletes for keys containing substr.
type deleteFailingObjects struct {
	storage.ObjectStore
	substr string
}

func (o *deleteFailingObjects) Delete(ctx context.Context, key string) error {
	if strings.Contains(key, o.substr) {
		return errors.New("access denied")
	}
	return o.ObjectStore.Delete(ctx, key)
}
