// Package metadata persists folders and videos. Two collections are kept:
// folders reference their videos by id and every video points back at its
// folder. The stores do not keep the two sides consistent transactionally.
package metadata

import (
	"context"
	"errors"

	"videothingy/vault/models"
)

var (
	// ErrNotFound is returned when no folder or video matches the lookup.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable wraps failures to reach the backing database.
	ErrUnavailable = errors.New("metadata store unavailable")
)

type Store interface {
	CreateFolder(ctx context.Context, name string) (*models.Folder, error)
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
	GetFolderByName(ctx context.Context, name string) (*models.Folder, error)
	ListFolders(ctx context.Context) ([]models.Folder, error)
	DeleteFolder(ctx context.Context, id string) error

	// AddVideoToFolder appends videoID to the folder's video list.
	AddVideoToFolder(ctx context.Context, folderID, videoID string) error
	// RemoveVideoFromFolder pulls videoID out of the folder's video list.
	RemoveVideoFromFolder(ctx context.Context, folderID, videoID string) error

	// CreateVideo inserts v and assigns its ID.
	CreateVideo(ctx context.Context, v *models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	// GetVideos returns the videos with the given ids that still exist, in the order given.
	GetVideos(ctx context.Context, ids []string) ([]models.Video, error)
	ListVideosByFolder(ctx context.Context, folderID string) ([]models.Video, error)
	// SetCaptionsReady flips the captions flag on. It never clears it.
	SetCaptionsReady(ctx context.Context, id string) error
	DeleteVideo(ctx context.Context, id string) error

	Close(ctx context.Context) error
}
