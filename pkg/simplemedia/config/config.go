package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-media/pkg/simplemedia"
	repomemory "github.com/tendant/simple-media/pkg/simplemedia/repo/memory"
	repopg "github.com/tendant/simple-media/pkg/simplemedia/repo/postgres"
	fsstorage "github.com/tendant/simple-media/pkg/simplemedia/storage/fs"
	memorystorage "github.com/tendant/simple-media/pkg/simplemedia/storage/memory"
	s3storage "github.com/tendant/simple-media/pkg/simplemedia/storage/s3"
	"github.com/tendant/simple-media/pkg/simplemedia/transcode"
	"github.com/tendant/simple-media/pkg/simplemedia/urlstrategy"
)

// ServerConfig represents server configuration for the media service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// Database connection string. Empty or "memory" selects the in-memory
	// repository; a postgresql:// URL selects the pgx repository.
	DatabaseURL string `env:"DATABASE_URL" env-default:""`

	// Storage connection string (one of):
	//   memory://            - in-memory storage
	//   file:///path/to/data - filesystem storage
	//   s3://bucket          - S3-compatible storage
	StorageURL string `env:"STORAGE_URL" env-default:"file://./data/media"`

	S3 S3Config

	// Public URL prefix served in status responses
	PublicBaseURL string `env:"PUBLIC_BASE_URL" env-default:"/media"`

	// Shared identity for unregistered uploads
	PublicOwnerKey string `env:"PUBLIC_OWNER_KEY" env-default:"public"`

	// Transform scheduler sizing
	TransformWorkers   int `env:"TRANSFORM_WORKERS" env-default:"2"`
	TransformQueueSize int `env:"TRANSFORM_QUEUE_SIZE" env-default:"64"`

	// Asset served when a valid media path has no artifact
	NotFoundAsset string `env:"NOT_FOUND_ASSET" env-default:""`
}

// S3Config holds credentials for the s3:// storage backend
type S3Config struct {
	Region          string `env:"S3_REGION" env-default:"us-east-1"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY" env-default:""`
	Endpoint        string `env:"S3_ENDPOINT" env-default:""`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	CreateBucket    bool   `env:"S3_CREATE_BUCKET" env-default:"false"`
}

// Load reads configuration from the environment
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseURL != "" && c.DatabaseURL != "memory" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return errors.New("unsupported DATABASE_URL format (use 'memory' or 'postgresql://...')")
	}

	switch {
	case c.StorageURL == "" || c.StorageURL == "memory" || c.StorageURL == "memory://":
	case strings.HasPrefix(c.StorageURL, "file://"):
		if strings.TrimPrefix(c.StorageURL, "file://") == "" {
			return errors.New("filesystem path cannot be empty in STORAGE_URL")
		}
	case strings.HasPrefix(c.StorageURL, "s3://"):
		if bucketFromURL(c.StorageURL) == "" {
			return errors.New("bucket name cannot be empty in STORAGE_URL")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", c.StorageURL)
	}

	if c.TransformWorkers < 1 {
		return errors.New("transform_workers must be at least 1")
	}
	if c.TransformQueueSize < 1 {
		return errors.New("transform_queue_size must be at least 1")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (simplemedia.Service, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	storeName, store, err := c.buildStorageBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to build storage backend: %w", err)
	}

	options := []simplemedia.Option{
		simplemedia.WithRepository(repo),
		simplemedia.WithBlobStore(storeName, store),
		simplemedia.WithTranscoder(transcode.New()),
		simplemedia.WithScheduler(simplemedia.NewScheduler(c.TransformQueueSize, c.TransformWorkers)),
		simplemedia.WithPublicIdentity(c.PublicOwnerKey),
		simplemedia.WithURLStrategy(urlstrategy.NewOwnerPathStrategy(c.PublicBaseURL)),
	}
	if c.NotFoundAsset != "" {
		options = append(options, simplemedia.WithFallbackAsset(c.NotFoundAsset))
	}

	return simplemedia.New(options...)
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (simplemedia.Repository, error) {
	if c.DatabaseURL == "" || c.DatabaseURL == "memory" {
		return repomemory.New(), nil
	}

	pool, err := pgxpool.New(ctx, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return repopg.NewWithPool(pool), nil
}

// buildStorageBackend creates a BlobStore based on the configuration
func (c *ServerConfig) buildStorageBackend() (string, simplemedia.BlobStore, error) {
	switch {
	case c.StorageURL == "" || c.StorageURL == "memory" || c.StorageURL == "memory://":
		return "memory", memorystorage.New(), nil

	case strings.HasPrefix(c.StorageURL, "file://"):
		store, err := fsstorage.New(fsstorage.Config{
			BaseDir: strings.TrimPrefix(c.StorageURL, "file://"),
		})
		return "fs", store, err

	case strings.HasPrefix(c.StorageURL, "s3://"):
		store, err := s3storage.New(s3storage.Config{
			Region:                 c.S3.Region,
			Bucket:                 bucketFromURL(c.StorageURL),
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			CreateBucketIfNotExist: c.S3.CreateBucket,
		})
		return "s3", store, err

	default:
		return "", nil, fmt.Errorf("unsupported STORAGE_URL format: %s", c.StorageURL)
	}
}

func bucketFromURL(storageURL string) string {
	u, err := url.Parse(storageURL)
	if err != nil {
		return ""
	}
	return u.Host
}
