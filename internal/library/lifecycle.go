package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"videothingy/vault/models"
)

// CreateFolder adds an empty folder. The name is trimmed and must not be blank.
func (s *Service) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", ErrValidation)
	}

	f, err := s.store.CreateFolder(ctx, name)
	if err != nil {
		return nil, metadataErr("create folder", err)
	}
	if f.Videos == nil {
		f.Videos = []string{}
	}
	s.logger.WithField("folder_id", f.ID).Infof("Created folder %q", f.Name)
	return f, nil
}

// ListFolders returns every folder with its videos embedded and sorted by name.
// References to videos that no longer exist are skipped.
func (s *Service) ListFolders(ctx context.Context) ([]models.FolderWithVideos, error) {
	folders, err := s.store.ListFolders(ctx)
	if err != nil {
		return nil, metadataErr("list folders", err)
	}

	out := make([]models.FolderWithVideos, 0, len(folders))
	for _, f := range folders {
		videos, err := s.store.GetVideos(ctx, f.Videos)
		if err != nil {
			return nil, metadataErr("load videos of folder "+f.ID, err)
		}
		if videos == nil {
			videos = []models.Video{}
		}
		slices.SortStableFunc(videos, func(a, b models.Video) int {
			return strings.Compare(a.Name, b.Name)
		})
		out = append(out, models.FolderWithVideos{ID: f.ID, Name: f.Name, Videos: videos})
	}
	return out, nil
}

// DeleteFolder removes every video of the folder, their stored bytes, and
// then the folder itself. Per-video failures are collected; if any occur the
// folder record is kept so a retry can finish the cleanup.
func (s *Service) DeleteFolder(ctx context.Context, folderID string) error {
	f, err := s.store.GetFolder(ctx, folderID)
	if err != nil {
		return metadataErr("get folder "+folderID, err)
	}
	log := s.logger.WithField("folder_id", folderID)

	// Videos pointing at the folder but missing from its list are removed too.
	ids := slices.Clone(f.Videos)
	linked, err := s.store.ListVideosByFolder(ctx, folderID)
	if err != nil {
		return metadataErr("list videos in folder "+folderID, err)
	}
	for _, v := range linked {
		if !slices.Contains(ids, v.ID) {
			ids = append(ids, v.ID)
		}
	}

	var errs []error
	for _, id := range ids {
		if err := s.purgeVideo(ctx, log, id); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		log.Errorf("Folder cleanup incomplete: %d of %d videos failed", len(errs), len(ids))
		return fmt.Errorf("delete folder %s: %w", folderID, errors.Join(errs...))
	}

	if err := s.store.DeleteFolder(ctx, folderID); err != nil {
		return metadataErr("delete folder "+folderID, err)
	}
	s.metrics.Deletes.WithLabelValues("folder").Inc()
	log.Infof("Deleted folder %q and %d videos", f.Name, len(ids))
	return nil
}

// purgeVideo removes one video's bytes, caption track and record. A video
// that is already gone counts as removed.
func (s *Service) purgeVideo(ctx context.Context, log logrus.FieldLogger, videoID string) error {
	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		if isMetadataNotFound(err) {
			return nil
		}
		return metadataErr("get video "+videoID, err)
	}

	if err := s.removeObjects(ctx, log, v); err != nil {
		return err
	}
	if err := s.store.DeleteVideo(ctx, v.ID); err != nil && !isMetadataNotFound(err) {
		return metadataErr("delete video "+v.ID, err)
	}
	s.metrics.Deletes.WithLabelValues("video").Inc()
	return nil
}

// DeleteVideo removes the video's bytes, its record and its folder reference.
func (s *Service) DeleteVideo(ctx context.Context, videoID string) error {
	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return metadataErr("get video "+videoID, err)
	}
	log := s.logger.WithFields(logrus.Fields{"video_id": v.ID, "folder_id": v.FolderID})

	if err := s.removeObjects(ctx, log, v); err != nil {
		return err
	}
	if err := s.store.DeleteVideo(ctx, v.ID); err != nil {
		return metadataErr("delete video "+v.ID, err)
	}
	if err := s.store.RemoveVideoFromFolder(ctx, v.FolderID, v.ID); err != nil {
		if !isMetadataNotFound(err) {
			return metadataErr("unlink video from folder", err)
		}
		log.Warn("Folder of deleted video no longer exists")
	}

	s.metrics.Deletes.WithLabelValues("video").Inc()
	log.Infof("Deleted video %q", v.Name)
	return nil
}

// removeObjects deletes the video's object, its caption track and any copy
// left in the local uploads directory.
func (s *Service) removeObjects(ctx context.Context, log logrus.FieldLogger, v *models.Video) error {
	if err := s.objects.Delete(ctx, v.StorageKey); err != nil && !isObjectMissing(err) {
		return storageErr("delete "+v.StorageKey, err)
	}
	captionKey := models.CaptionKey(v.ID)
	if err := s.objects.Delete(ctx, captionKey); err != nil && !isObjectMissing(err) {
		return storageErr("delete "+captionKey, err)
	}
	s.removeLocalCopy(log, v.StorageKey)
	return nil
}

func (s *Service) removeLocalCopy(log logrus.FieldLogger, key string) {
	if s.cfg.UploadsDir == "" {
		return
	}
	p := filepath.Join(s.cfg.UploadsDir, path.Base(key))
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warnf("Could not remove local copy %s", p)
	}
}
