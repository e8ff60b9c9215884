package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the server configuration, read from the environment and
// optionally from a YAML file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Metadata MetadataConfig `yaml:"metadata"`
	Storage  StorageConfig  `yaml:"storage"`
	Tools    ToolsConfig    `yaml:"tools"`
	Library  LibraryConfig  `yaml:"library"`
}

type ServerConfig struct {
	Port        string `yaml:"port" env:"PORT" env-default:"5000"`
	FrontAPI    string `yaml:"front_api" env:"FRONT_API" env-default:"*"`
	BodyLimitMB int    `yaml:"body_limit_mb" env:"BODY_LIMIT_MB" env-default:"1024"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	UploadsDir  string `yaml:"uploads_dir" env:"UPLOADS_DIR" env-default:"uploads"`
}

// MetadataConfig selects the folder/video store. Backend is "mongo" or "supabase".
type MetadataConfig struct {
	Backend            string `yaml:"backend" env:"METADATA_BACKEND" env-default:"mongo"`
	MongoURI           string `yaml:"mongo_uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	MongoDatabase      string `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"vault"`
	SupabaseURL        string `yaml:"supabase_url" env:"SUPABASE_URL"`
	SupabaseServiceKey string `yaml:"supabase_service_key" env:"SUPABASE_SERVICE_KEY"`
}

type StorageConfig struct {
	Bucket    string `yaml:"bucket" env:"STORAGE_BUCKET" env-required:"true"`
	Region    string `yaml:"region" env:"STORAGE_REGION" env-default:"us-east-1"`
	Endpoint  string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`
}

type ToolsConfig struct {
	WhisperBin   string `yaml:"whisper_bin" env:"WHISPER_BIN" env-default:"whisper"`
	WhisperModel string `yaml:"whisper_model" env:"WHISPER_MODEL" env-default:"tiny"`
	FFprobeBin   string `yaml:"ffprobe_bin" env:"FFPROBE_BIN" env-default:"ffprobe"`
}

type LibraryConfig struct {
	StreamURLTTL   time.Duration `yaml:"stream_url_ttl" env:"STREAM_URL_TTL" env-default:"2h"`
	CaptionURLTTL  time.Duration `yaml:"caption_url_ttl" env:"CAPTION_URL_TTL" env-default:"1h"`
	MaxUploadFiles int           `yaml:"max_upload_files" env:"MAX_UPLOAD_FILES" env-default:"50"`
}

// Load reads a .env file if one exists in the working directory, then fills
// the config from path (when non-empty) and the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration - %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field rules cleanenv tags cannot express.
func (c *Config) Validate() error {
	switch c.Metadata.Backend {
	case "mongo":
		if c.Metadata.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo backend")
		}
	case "supabase":
		if c.Metadata.SupabaseURL == "" || c.Metadata.SupabaseServiceKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase backend")
		}
	default:
		return fmt.Errorf("unknown METADATA_BACKEND %q (want mongo or supabase)", c.Metadata.Backend)
	}

	if c.Server.BodyLimitMB <= 0 {
		return fmt.Errorf("BODY_LIMIT_MB must be positive, got %d", c.Server.BodyLimitMB)
	}
	if c.Library.MaxUploadFiles <= 0 {
		return fmt.Errorf("MAX_UPLOAD_FILES must be positive, got %d", c.Library.MaxUploadFiles)
	}
	return nil
}

// BodyLimit is the request body limit in bytes.
func (c *Config) BodyLimit() int {
	return c.Server.BodyLimitMB * 1024 * 1024
}
