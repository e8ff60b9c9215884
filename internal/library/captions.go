package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"videothingy/vault/models"
)

const captionContentType = "text/vtt"

// GenerateCaptions transcribes the video into a WebVTT track, stores it under
// models.CaptionKey and marks the video as captioned. It blocks until the
// transcriber exits and returns the caption key.
func (s *Service) GenerateCaptions(ctx context.Context, videoID string) (string, error) {
	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return "", metadataErr("get video "+videoID, err)
	}

	start := time.Now()
	key, err := s.generateCaptions(ctx, v)
	s.metrics.CaptionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.CaptionJobs.WithLabelValues("failed").Inc()
		return "", err
	}
	s.metrics.CaptionJobs.WithLabelValues("ok").Inc()
	return key, nil
}

func (s *Service) generateCaptions(ctx context.Context, v *models.Video) (string, error) {
	log := s.logger.WithFields(logrus.Fields{"video_id": v.ID, "key": v.StorageKey})

	workDir, err := os.MkdirTemp("", "vault-captions-*")
	if err != nil {
		return "", fmt.Errorf("%w: create work dir: %w", ErrCaptioningFailed, err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.WithError(err).Warn("Could not remove caption work dir")
		}
	}()

	ext := path.Ext(v.StorageKey)
	if ext == "" {
		ext = ".mp4"
	}
	inputPath := filepath.Join(workDir, v.ID+ext)
	if err := s.download(ctx, v.StorageKey, inputPath); err != nil {
		return "", err
	}

	outDir := filepath.Join(workDir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %w", ErrCaptioningFailed, err)
	}

	log.Info("Starting transcription")
	trackPath, err := s.transcriber.Transcribe(ctx, inputPath, outDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCaptioningFailed, err)
	}

	track, err := os.ReadFile(trackPath)
	if err != nil {
		return "", fmt.Errorf("%w: read caption track: %w", ErrCaptioningFailed, err)
	}

	captionKey := models.CaptionKey(v.ID)
	if err := s.objects.Put(ctx, captionKey, track, captionContentType); err != nil {
		return "", storageErr("put "+captionKey, err)
	}
	if err := s.store.SetCaptionsReady(ctx, v.ID); err != nil {
		return "", metadataErr("mark captions ready", err)
	}

	log.WithField("caption_key", captionKey).Infof("Captions stored (%d bytes)", len(track))
	return captionKey, nil
}

// download copies the object at key into a new local file at dst.
func (s *Service) download(ctx context.Context, key, dst string) error {
	rc, err := s.objects.Get(ctx, key)
	if err != nil {
		return storageErr("get "+key, err)
	}
	defer rc.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrCaptioningFailed, dst, err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return storageErr("download "+key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrCaptioningFailed, dst, err)
	}
	return nil
}

// GetCaptionURL presigns the video's caption track. A nil result with a nil
// error means no track has been generated yet.
func (s *Service) GetCaptionURL(ctx context.Context, videoID string) (*SignedURL, error) {
	if _, err := s.store.GetVideo(ctx, videoID); err != nil {
		return nil, metadataErr("get video "+videoID, err)
	}

	key := models.CaptionKey(videoID)
	if _, err := s.objects.Head(ctx, key); err != nil {
		if isObjectMissing(err) {
			return nil, nil
		}
		return nil, storageErr("head "+key, err)
	}
	return s.presign(ctx, key, s.cfg.CaptionURLTTL)
}

// GetCaptionStatus reports the stored captions flag without consulting the object store.
func (s *Service) GetCaptionStatus(ctx context.Context, videoID string) (bool, error) {
	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return false, metadataErr("get video "+videoID, err)
	}
	return v.CaptionsReady, nil
}
