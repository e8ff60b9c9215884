// Package library implements the folder, upload, streaming and caption
// workflows on top of the metadata store, the object store and the external
// media tools.
package library

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"videothingy/vault/internal/metadata"
	"videothingy/vault/internal/metrics"
	"videothingy/vault/internal/storage"
)

const (
	DefaultStreamURLTTL   = 2 * time.Hour
	DefaultCaptionURLTTL  = time.Hour
	DefaultMaxUploadFiles = 50
)

// Prober extracts the duration in seconds of an in-memory media file.
type Prober interface {
	ProbeDuration(ctx context.Context, data []byte) (float64, error)
}

// Transcriber turns the media file at inputPath into a WebVTT file written to
// outputDir and returns the produced file's path.
type Transcriber interface {
	Transcribe(ctx context.Context, inputPath, outputDir string) (string, error)
}

type Config struct {
	StreamURLTTL   time.Duration
	CaptionURLTTL  time.Duration
	MaxUploadFiles int
	// UploadsDir is the legacy local upload directory. When set, deleting a
	// video also removes <UploadsDir>/<basename of its key> if present.
	UploadsDir string
}

// Service coordinates the metadata store, the object store and the media tools.
// It keeps no mutable state of its own.
type Service struct {
	store       metadata.Store
	objects     storage.ObjectStore
	prober      Prober
	transcriber Transcriber
	metrics     *metrics.Metrics
	logger      logrus.FieldLogger
	cfg         Config
	now         func() time.Time
}

func New(
	store metadata.Store,
	objects storage.ObjectStore,
	prober Prober,
	transcriber Transcriber,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
	cfg Config,
) *Service {
	if cfg.StreamURLTTL <= 0 {
		cfg.StreamURLTTL = DefaultStreamURLTTL
	}
	if cfg.CaptionURLTTL <= 0 {
		cfg.CaptionURLTTL = DefaultCaptionURLTTL
	}
	if cfg.MaxUploadFiles <= 0 {
		cfg.MaxUploadFiles = DefaultMaxUploadFiles
	}

	return &Service{
		store:       store,
		objects:     objects,
		prober:      prober,
		transcriber: transcriber,
		metrics:     m,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// MaxUploadFiles is the largest batch Upload accepts.
func (s *Service) MaxUploadFiles() int {
	return s.cfg.MaxUploadFiles
}
