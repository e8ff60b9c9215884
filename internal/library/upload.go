package library

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"videothingy/vault/models"
)

var (
	whitespaceRun  = regexp.MustCompile(`[\s\p{Zs}]+`)
	unsafeFileChar = regexp.MustCompile(`[^\w.-]`)
)

// UploadFile is one file of an upload batch, fully buffered.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// SanitizeFileName collapses whitespace runs to underscores and drops every
// character outside letters, digits, underscore, dot and hyphen.
func SanitizeFileName(name string) string {
	name = whitespaceRun.ReplaceAllString(name, "_")
	return unsafeFileChar.ReplaceAllString(name, "")
}

// NewStorageKey returns a fresh key under videos/ for a file named name.
func NewStorageKey(name string) string {
	return "videos/" + uuid.NewString() + "-" + SanitizeFileName(name)
}

// Upload stores every file of the batch into folderID, in order. The first
// failing file aborts the batch; files committed before it stay committed and
// are returned alongside the error.
func (s *Service) Upload(ctx context.Context, folderID string, files []UploadFile) ([]models.Video, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", ErrValidation)
	}
	if len(files) > s.cfg.MaxUploadFiles {
		return nil, fmt.Errorf("%w: at most %d files per upload, got %d", ErrValidation, s.cfg.MaxUploadFiles, len(files))
	}

	if _, err := s.store.GetFolder(ctx, folderID); err != nil {
		return nil, metadataErr("get folder "+folderID, err)
	}

	created := make([]models.Video, 0, len(files))
	for _, f := range files {
		v, err := s.uploadOne(ctx, folderID, f)
		if err != nil {
			s.metrics.Uploads.WithLabelValues("failed").Inc()
			return created, err
		}
		s.metrics.Uploads.WithLabelValues("ok").Inc()
		s.metrics.UploadBytes.Add(float64(v.Size))
		created = append(created, *v)
	}
	return created, nil
}

func (s *Service) uploadOne(ctx context.Context, folderID string, f UploadFile) (*models.Video, error) {
	key := NewStorageKey(f.Name)
	log := s.logger.WithFields(logrus.Fields{"folder_id": folderID, "key": key, "file": f.Name})

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.objects.Put(ctx, key, f.Data, contentType); err != nil {
		return nil, storageErr("put "+key, err)
	}

	duration, err := s.prober.ProbeDuration(ctx, f.Data)
	if err != nil {
		s.discardObject(ctx, log, key)
		return nil, fmt.Errorf("%s: %w: %w", f.Name, ErrProbe, err)
	}

	v := &models.Video{
		Name:       f.Name,
		StorageKey: key,
		Size:       int64(len(f.Data)),
		Duration:   duration,
		FolderID:   folderID,
	}
	if err := s.store.CreateVideo(ctx, v); err != nil {
		s.discardObject(ctx, log, key)
		return nil, metadataErr("create video", err)
	}

	if err := s.store.AddVideoToFolder(ctx, folderID, v.ID); err != nil {
		if delErr := s.store.DeleteVideo(ctx, v.ID); delErr != nil {
			log.WithError(delErr).Warnf("Could not remove video record %s after failed folder link", v.ID)
		}
		s.discardObject(ctx, log, key)
		return nil, metadataErr("link video to folder", err)
	}

	log.WithField("video_id", v.ID).Infof("Uploaded %d bytes, duration %.2fs", v.Size, v.Duration)
	return v, nil
}

// discardObject removes an object written by a step that later failed.
func (s *Service) discardObject(ctx context.Context, log logrus.FieldLogger, key string) {
	if err := s.objects.Delete(ctx, key); err != nil {
		log.WithError(err).Warnf("Could not remove orphaned object %s", key)
	}
}
