package metadata

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"videothingy/vault/models"
)

// MemoryStore keeps folders and videos in maps. It backs the tests and local
// development runs where no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	folders map[string]*models.Folder
	videos  map[string]*models.Video
	order   []string // video ids in insertion order
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		folders: make(map[string]*models.Folder),
		videos:  make(map[string]*models.Video),
	}
}

func (m *MemoryStore) CreateFolder(_ context.Context, name string) (*models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := &models.Folder{ID: uuid.NewString(), Name: name, Videos: []string{}}
	m.folders[f.ID] = f
	return cloneFolder(f), nil
}

func (m *MemoryStore) GetFolder(_ context.Context, id string) (*models.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	return cloneFolder(f), nil
}

func (m *MemoryStore) GetFolderByName(_ context.Context, name string) (*models.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.folders {
		if f.Name == name {
			return cloneFolder(f), nil
		}
	}
	return nil, fmt.Errorf("folder named %q: %w", name, ErrNotFound)
}

func (m *MemoryStore) ListFolders(_ context.Context) ([]models.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Folder, 0, len(m.folders))
	for _, f := range m.folders {
		out = append(out, *cloneFolder(f))
	}
	slices.SortFunc(out, func(a, b models.Folder) int {
		if a.Name == b.Name {
			return cmp.Compare(a.ID, b.ID)
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (m *MemoryStore) DeleteFolder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.folders[id]; !ok {
		return fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	delete(m.folders, id)
	return nil
}

func (m *MemoryStore) AddVideoToFolder(_ context.Context, folderID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.folders[folderID]
	if !ok {
		return fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
	}
	f.Videos = append(f.Videos, videoID)
	return nil
}

func (m *MemoryStore) RemoveVideoFromFolder(_ context.Context, folderID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.folders[folderID]
	if !ok {
		return fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
	}
	f.Videos = slices.DeleteFunc(f.Videos, func(id string) bool { return id == videoID })
	return nil
}

func (m *MemoryStore) CreateVideo(_ context.Context, v *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.videos {
		if existing.StorageKey == v.StorageKey {
			return fmt.Errorf("storage key %s already in use", v.StorageKey)
		}
	}

	v.ID = uuid.NewString()
	stored := *v
	m.videos[v.ID] = &stored
	m.order = append(m.order, v.ID)
	return nil
}

func (m *MemoryStore) GetVideo(_ context.Context, id string) (*models.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.videos[id]
	if !ok {
		return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	out := *v
	return &out, nil
}

func (m *MemoryStore) GetVideos(_ context.Context, ids []string) ([]models.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.videos[id]; ok {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListVideosByFolder(_ context.Context, folderID string) ([]models.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Video{}
	for _, id := range m.order {
		if v, ok := m.videos[id]; ok && v.FolderID == folderID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *MemoryStore) SetCaptionsReady(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.videos[id]
	if !ok {
		return fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	v.CaptionsReady = true
	return nil
}

func (m *MemoryStore) DeleteVideo(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.videos[id]; !ok {
		return fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	delete(m.videos, id)
	m.order = slices.DeleteFunc(m.order, func(v string) bool { return v == id })
	return nil
}

func (m *MemoryStore) Close(context.Context) error { return nil }

func cloneFolder(f *models.Folder) *models.Folder {
	out := *f
	out.Videos = slices.Clone(f.Videos)
	if out.Videos == nil {
		out.Videos = []string{}
	}
	return &out
}
