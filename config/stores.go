package config

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"videothingy/vault/internal/metadata"
	"videothingy/vault/internal/storage"
)

// OpenMetadataStore connects to the configured metadata backend.
func OpenMetadataStore(ctx context.Context, cfg MetadataConfig, logger logrus.FieldLogger) (metadata.Store, error) {
	switch cfg.Backend {
	case "mongo":
		store, err := metadata.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, fmt.Errorf("error initializing mongo store: %w", err)
		}
		return store, nil
	case "supabase":
		store, err := metadata.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, logger)
		if err != nil {
			return nil, fmt.Errorf("error initializing supabase store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown metadata backend %q", cfg.Backend)
}

// OpenObjectStore builds the S3-compatible bucket client.
func OpenObjectStore(ctx context.Context, cfg StorageConfig, logger logrus.FieldLogger) (storage.ObjectStore, error) {
	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing object storage: %w", err)
	}
	return store, nil
}
