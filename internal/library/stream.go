package library

import (
	"context"
	"time"

	"videothingy/vault/models"
)

// SignedURL is a presigned read URL. It stops working at ExpiresAt.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GetStreamURL presigns the video's bytes for playback.
func (s *Service) GetStreamURL(ctx context.Context, videoID string) (*SignedURL, error) {
	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, metadataErr("get video "+videoID, err)
	}
	return s.presign(ctx, v.StorageKey, s.cfg.StreamURLTTL)
}

func (s *Service) presign(ctx context.Context, key string, ttl time.Duration) (*SignedURL, error) {
	issued := s.now()
	url, err := s.objects.PresignGet(ctx, key, ttl)
	if err != nil {
		return nil, storageErr("presign "+key, err)
	}
	return &SignedURL{URL: url, ExpiresAt: issued.Add(ttl)}, nil
}

// GetVideosInFolder returns the videos whose folder reference is folderID,
// in store order. An unknown folder yields an empty list.
func (s *Service) GetVideosInFolder(ctx context.Context, folderID string) ([]models.Video, error) {
	videos, err := s.store.ListVideosByFolder(ctx, folderID)
	if err != nil {
		return nil, metadataErr("list videos in folder "+folderID, err)
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return videos, nil
}

func (s *Service) GetFolderByName(ctx context.Context, name string) (*models.Folder, error) {
	f, err := s.store.GetFolderByName(ctx, name)
	if err != nil {
		return nil, metadataErr("get folder by name "+name, err)
	}
	if f.Videos == nil {
		f.Videos = []string{}
	}
	return f, nil
}
