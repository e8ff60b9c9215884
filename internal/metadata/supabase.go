package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"videothingy/vault/models"
)

const (
	foldersTable = "folders"
	videosTable  = "videos"
)

// folderRow and videoRow mirror the tables in supabase_schema.sql. The folder's
// video list is derived from videos.folder_id ordered by created_at rather
// than stored as an array, so linking a video only has to verify the folder.
type folderRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type videoRow struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	Size          int64     `json:"size"`
	Duration      float64   `json:"duration"`
	FolderID      string    `json:"folder_id"`
	CaptionsReady bool      `json:"captions_ready"`
	CreatedAt     time.Time `json:"created_at"`
}

// SupabaseStore keeps folders and videos in Supabase tables through PostgREST.
type SupabaseStore struct {
	db     *supa.Client
	logger logrus.FieldLogger
}

var _ Store = (*SupabaseStore)(nil)

// NewSupabaseStore creates the Supabase client for projectURL using the service key.
func NewSupabaseStore(projectURL, serviceKey string, logger logrus.FieldLogger) (*SupabaseStore, error) {
	if projectURL == "" || serviceKey == "" {
		return nil, errors.New("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set")
	}

	client, err := supa.NewClient(projectURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("error initializing Supabase client: %w", err)
	}

	logger.Info("Supabase metadata store initialized")
	return &SupabaseStore{db: client, logger: logger}, nil
}

func (s *SupabaseStore) CreateFolder(_ context.Context, name string) (*models.Folder, error) {
	row := folderRow{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}

	var created []folderRow
	if err := s.execute(s.db.From(foldersTable).Insert(row, false, "", "representation", ""), &created); err != nil {
		return nil, fmt.Errorf("insert folder: %w", err)
	}
	if len(created) == 0 {
		return nil, errors.New("insert folder: no record returned")
	}

	return &models.Folder{ID: created[0].ID, Name: created[0].Name, Videos: []string{}}, nil
}

func (s *SupabaseStore) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("folder %q: %w", id, ErrNotFound)
	}
	return s.findFolder(ctx, "id", id)
}

func (s *SupabaseStore) GetFolderByName(ctx context.Context, name string) (*models.Folder, error) {
	return s.findFolder(ctx, "name", name)
}

func (s *SupabaseStore) findFolder(ctx context.Context, column, value string) (*models.Folder, error) {
	var rows []folderRow
	err := s.execute(s.db.From(foldersTable).Select("*", "", false).Eq(column, value).Limit(1, ""), &rows)
	if err != nil {
		return nil, fmt.Errorf("find folder: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("folder %s=%q: %w", column, value, ErrNotFound)
	}

	return s.withVideoIDs(ctx, rows[0])
}

func (s *SupabaseStore) withVideoIDs(ctx context.Context, row folderRow) (*models.Folder, error) {
	videos, err := s.ListVideosByFolder(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	return &models.Folder{ID: row.ID, Name: row.Name, Videos: ids}, nil
}

func (s *SupabaseStore) ListFolders(ctx context.Context) ([]models.Folder, error) {
	var rows []folderRow
	query := s.db.From(foldersTable).Select("*", "", false).Order("name", &postgrest.OrderOpts{Ascending: true})
	if err := s.execute(query, &rows); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	out := make([]models.Folder, 0, len(rows))
	for _, row := range rows {
		f, err := s.withVideoIDs(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, nil
}

func (s *SupabaseStore) DeleteFolder(_ context.Context, id string) error {
	return s.deleteByID(foldersTable, "folder", id)
}

func (s *SupabaseStore) AddVideoToFolder(ctx context.Context, folderID, _ string) error {
	_, err := s.GetFolder(ctx, folderID)
	return err
}

// RemoveVideoFromFolder has nothing to do: deleting the video row already
// removes it from the derived list.
func (s *SupabaseStore) RemoveVideoFromFolder(context.Context, string, string) error {
	return nil
}

func (s *SupabaseStore) CreateVideo(_ context.Context, v *models.Video) error {
	row := videoRow{
		ID:            uuid.NewString(),
		Name:          v.Name,
		URL:           v.StorageKey,
		Size:          v.Size,
		Duration:      v.Duration,
		FolderID:      v.FolderID,
		CaptionsReady: v.CaptionsReady,
		CreatedAt:     time.Now().UTC(),
	}

	var created []videoRow
	if err := s.execute(s.db.From(videosTable).Insert(row, false, "", "representation", ""), &created); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	if len(created) == 0 {
		return errors.New("insert video: no record returned")
	}

	v.ID = created[0].ID
	return nil
}

func (s *SupabaseStore) GetVideo(_ context.Context, id string) (*models.Video, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("video %q: %w", id, ErrNotFound)
	}

	var rows []videoRow
	if err := s.execute(s.db.From(videosTable).Select("*", "", false).Eq("id", id).Limit(1, ""), &rows); err != nil {
		return nil, fmt.Errorf("find video: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}

	v := rows[0].model()
	return &v, nil
}

func (s *SupabaseStore) GetVideos(_ context.Context, ids []string) ([]models.Video, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []models.Video{}, nil
	}

	var rows []videoRow
	if err := s.execute(s.db.From(videosTable).Select("*", "", false).In("id", valid), &rows); err != nil {
		return nil, fmt.Errorf("find videos: %w", err)
	}

	byID := make(map[string]models.Video, len(rows))
	for _, r := range rows {
		byID[r.ID] = r.model()
	}
	out := make([]models.Video, 0, len(rows))
	for _, id := range valid {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *SupabaseStore) ListVideosByFolder(_ context.Context, folderID string) ([]models.Video, error) {
	if _, err := uuid.Parse(folderID); err != nil {
		return []models.Video{}, nil
	}

	var rows []videoRow
	query := s.db.From(videosTable).
		Select("*", "", false).
		Eq("folder_id", folderID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true})
	if err := s.execute(query, &rows); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	out := make([]models.Video, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *SupabaseStore) SetCaptionsReady(_ context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("video %q: %w", id, ErrNotFound)
	}

	var updated []videoRow
	query := s.db.From(videosTable).
		Update(map[string]interface{}{"captions_ready": true}, "representation", "").
		Eq("id", id)
	if err := s.execute(query, &updated); err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SupabaseStore) DeleteVideo(_ context.Context, id string) error {
	return s.deleteByID(videosTable, "video", id)
}

func (s *SupabaseStore) deleteByID(table, kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}

	_, count, err := s.db.From(table).Delete("minimal", "exact").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, classifyRestErr(err))
	}
	if count == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func (s *SupabaseStore) Close(context.Context) error { return nil }

// execute runs the query and decodes the JSON body into out.
func (s *SupabaseStore) execute(query *postgrest.FilterBuilder, out interface{}) error {
	body, _, err := query.Execute()
	if err != nil {
		return classifyRestErr(err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		s.logger.WithField("body", string(body)).Errorf("Error unmarshalling PostgREST response: %v", err)
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (r videoRow) model() models.Video {
	return models.Video{
		ID:            r.ID,
		Name:          r.Name,
		StorageKey:    r.URL,
		Size:          r.Size,
		Duration:      r.Duration,
		FolderID:      r.FolderID,
		CaptionsReady: r.CaptionsReady,
	}
}

// classifyRestErr marks transport failures as ErrUnavailable.
func classifyRestErr(err error) error {
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
