package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/mitchellh/go-homedir"
)

// DefaultStatePath is where the client keeps its state unless VAULT_STATE says otherwise.
const DefaultStatePath = "~/.config/vault/state.json"

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// State is the persisted client state. The JSON keys are the schema of the
// state file.
type State struct {
	Theme           string   `json:"theme"`
	CompletedVideos []string `json:"completedVideos"`
	CurrentFolderID string   `json:"currentFolderId"`
	SidebarScroll   int      `json:"sidebarScroll"`
}

func defaultState() State {
	return State{Theme: ThemeLight, CompletedVideos: []string{}}
}

// StateStore loads, mutates and saves State. Nothing reaches disk until Save.
type StateStore struct {
	path string

	mu    sync.RWMutex
	state State
}

// NewStateStore returns a store backed by path; a leading ~ is expanded.
func NewStateStore(path string) (*StateStore, error) {
	if path == "" {
		path = DefaultStatePath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand state path %s: %w", path, err)
	}
	return &StateStore{path: expanded, state: defaultState()}, nil
}

func (s *StateStore) Path() string { return s.path }

// Load reads the state file. A missing file yields the defaults.
func (s *StateStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.state = defaultState()
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}

	st := defaultState()
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("parse state %s: %w", s.path, err)
	}
	if st.Theme != ThemeLight && st.Theme != ThemeDark {
		st.Theme = ThemeLight
	}
	if st.CompletedVideos == nil {
		st.CompletedVideos = []string{}
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

// Save writes the state atomically: a temp file in the same directory is
// renamed over the old one.
func (s *StateStore) Save() error {
	s.mu.RLock()
	raw, err := json.MarshalIndent(s.state, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (s *StateStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.CompletedVideos = slices.Clone(s.state.CompletedVideos)
	return st
}

func (s *StateStore) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme %q (want %s or %s)", theme, ThemeLight, ThemeDark)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Theme = theme
	return nil
}

// MarkCompleted records videoID as watched. Repeated calls are no-ops.
func (s *StateStore) MarkCompleted(videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.state.CompletedVideos, videoID) {
		s.state.CompletedVideos = append(s.state.CompletedVideos, videoID)
	}
}

func (s *StateStore) IsCompleted(videoID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.state.CompletedVideos, videoID)
}

// Forget drops videoID from the watched list, e.g. after it was deleted.
func (s *StateStore) Forget(videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CompletedVideos = slices.DeleteFunc(s.state.CompletedVideos, func(id string) bool { return id == videoID })
}

func (s *StateStore) SetCurrentFolder(folderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentFolderID = folderID
}

func (s *StateStore) SetSidebarScroll(offset int) {
	if offset < 0 {
		offset = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SidebarScroll = offset
}
