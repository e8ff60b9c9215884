package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"videothingy/vault/models"
)

const (
	foldersCollection = "folders"
	videosCollection  = "videos"
)

type folderDocument struct {
	ID     primitive.ObjectID   `bson:"_id,omitempty"`
	Name   string               `bson:"name"`
	Videos []primitive.ObjectID `bson:"videos"`
}

type videoDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	URL           string             `bson:"url"`
	Size          int64              `bson:"size"`
	Duration      float64            `bson:"duration"`
	Folder        primitive.ObjectID `bson:"folder"`
	CaptionsReady bool               `bson:"captionsReady"`
}

// MongoStore keeps folders and videos as documents in a MongoDB database.
type MongoStore struct {
	client  *mongo.Client
	folders *mongo.Collection
	videos  *mongo.Collection
	logger  logrus.FieldLogger
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to uri, pings the server and makes sure the unique
// index on video storage keys exists.
func NewMongoStore(ctx context.Context, uri, database string, logger logrus.FieldLogger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w: %w", ErrUnavailable, err)
	}

	db := client.Database(database)
	store := &MongoStore{
		client:  client,
		folders: db.Collection(foldersCollection),
		videos:  db.Collection(videosCollection),
		logger:  logger.WithField("database", database),
	}

	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	store.logger.Info("MongoDB metadata store connected")
	return store, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.videos.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "folder", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create video indexes: %w", err)
	}

	_, err = s.folders.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}})
	if err != nil {
		return fmt.Errorf("failed to create folder index: %w", err)
	}
	return nil
}

func (s *MongoStore) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	doc := folderDocument{Name: name, Videos: []primitive.ObjectID{}}
	res, err := s.folders.InsertOne(ctx, doc)
	if err != nil {
		return nil, wrapMongoErr("insert folder", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.model(), nil
}

func (s *MongoStore) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	oid, err := parseObjectID("folder", id)
	if err != nil {
		return nil, err
	}
	return s.findFolder(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) GetFolderByName(ctx context.Context, name string) (*models.Folder, error) {
	return s.findFolder(ctx, bson.M{"name": name})
}

func (s *MongoStore) findFolder(ctx context.Context, filter bson.M) (*models.Folder, error) {
	var doc folderDocument
	if err := s.folders.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, wrapMongoErr("find folder", err)
	}
	return doc.model(), nil
}

func (s *MongoStore) ListFolders(ctx context.Context) ([]models.Folder, error) {
	cursor, err := s.folders.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, wrapMongoErr("list folders", err)
	}

	var docs []folderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrapMongoErr("decode folders", err)
	}

	out := make([]models.Folder, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.model())
	}
	return out, nil
}

func (s *MongoStore) DeleteFolder(ctx context.Context, id string) error {
	oid, err := parseObjectID("folder", id)
	if err != nil {
		return err
	}
	return s.deleteOne(ctx, s.folders, "folder", oid)
}

func (s *MongoStore) AddVideoToFolder(ctx context.Context, folderID, videoID string) error {
	return s.updateFolderVideos(ctx, folderID, videoID, "$push")
}

func (s *MongoStore) RemoveVideoFromFolder(ctx context.Context, folderID, videoID string) error {
	return s.updateFolderVideos(ctx, folderID, videoID, "$pull")
}

func (s *MongoStore) updateFolderVideos(ctx context.Context, folderID, videoID, op string) error {
	fid, err := parseObjectID("folder", folderID)
	if err != nil {
		return err
	}
	vid, err := parseObjectID("video", videoID)
	if err != nil {
		return err
	}

	res, err := s.folders.UpdateOne(ctx, bson.M{"_id": fid}, bson.M{op: bson.M{"videos": vid}})
	if err != nil {
		return wrapMongoErr("update folder videos", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) CreateVideo(ctx context.Context, v *models.Video) error {
	fid, err := parseObjectID("folder", v.FolderID)
	if err != nil {
		return err
	}

	doc := videoDocument{
		Name:          v.Name,
		URL:           v.StorageKey,
		Size:          v.Size,
		Duration:      v.Duration,
		Folder:        fid,
		CaptionsReady: v.CaptionsReady,
	}
	res, err := s.videos.InsertOne(ctx, doc)
	if err != nil {
		return wrapMongoErr("insert video", err)
	}

	v.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *MongoStore) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	oid, err := parseObjectID("video", id)
	if err != nil {
		return nil, err
	}

	var doc videoDocument
	if err := s.videos.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, wrapMongoErr("find video", err)
	}
	v := doc.model()
	return &v, nil
}

func (s *MongoStore) GetVideos(ctx context.Context, ids []string) ([]models.Video, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []models.Video{}, nil
	}

	docs, err := s.findVideos(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Video, len(docs))
	for _, d := range docs {
		byID[d.ID.Hex()] = d.model()
	}
	out := make([]models.Video, 0, len(docs))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *MongoStore) ListVideosByFolder(ctx context.Context, folderID string) ([]models.Video, error) {
	fid, err := primitive.ObjectIDFromHex(folderID)
	if err != nil {
		// No video can reference a malformed id.
		return []models.Video{}, nil
	}

	docs, err := s.findVideos(ctx, bson.M{"folder": fid})
	if err != nil {
		return nil, err
	}
	out := make([]models.Video, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *MongoStore) findVideos(ctx context.Context, filter bson.M) ([]videoDocument, error) {
	cursor, err := s.videos.Find(ctx, filter)
	if err != nil {
		return nil, wrapMongoErr("find videos", err)
	}

	var docs []videoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrapMongoErr("decode videos", err)
	}
	return docs, nil
}

func (s *MongoStore) SetCaptionsReady(ctx context.Context, id string) error {
	oid, err := parseObjectID("video", id)
	if err != nil {
		return err
	}

	res, err := s.videos.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"captionsReady": true}})
	if err != nil {
		return wrapMongoErr("update video", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DeleteVideo(ctx context.Context, id string) error {
	oid, err := parseObjectID("video", id)
	if err != nil {
		return err
	}
	return s.deleteOne(ctx, s.videos, "video", oid)
}

func (s *MongoStore) deleteOne(ctx context.Context, coll *mongo.Collection, kind string, oid primitive.ObjectID) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return wrapMongoErr("delete "+kind, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", kind, oid.Hex(), ErrNotFound)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (d folderDocument) model() *models.Folder {
	ids := make([]string, 0, len(d.Videos))
	for _, v := range d.Videos {
		ids = append(ids, v.Hex())
	}
	return &models.Folder{ID: d.ID.Hex(), Name: d.Name, Videos: ids}
}

func (d videoDocument) model() models.Video {
	return models.Video{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		StorageKey:    d.URL,
		Size:          d.Size,
		Duration:      d.Duration,
		FolderID:      d.Folder.Hex(),
		CaptionsReady: d.CaptionsReady,
	}
}

// parseObjectID treats a malformed id as a missing record.
func parseObjectID(kind, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return oid, nil
}

func wrapMongoErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
