// Package config loads server configuration from the environment and builds
// a fully wired simplesource.Service from it.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-source/pkg/simplesource"
	fsrepo "github.com/tendant/simple-source/pkg/simplesource/repo/fs"
	memrepo "github.com/tendant/simple-source/pkg/simplesource/repo/memory"
	pgrepo "github.com/tendant/simple-source/pkg/simplesource/repo/postgres"
	"github.com/tendant/simple-source/pkg/simplesource/webhook"
)

// ServerConfig represents server configuration for the simple-source service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Metadata repository configuration
	RepositoryType string `env:"REPOSITORY_TYPE" env-default:"fs"` // "memory", "fs", "postgres"
	DatabaseURL    string `env:"DATABASE_URL"`

	// Blob storage configuration
	StorageBackend string `env:"STORAGE_BACKEND" env-default:"fs"` // "memory", "fs", "s3"
	DataDir        string `env:"DATA_DIR" env-default:"./data"`
	CompressBlobs  bool   `env:"COMPRESS_BLOBS" env-default:"false"`

	// Default outbound endpoint, seeded into settings when none is stored
	WebhookURL string `env:"WEBHOOK_URL"`

	// Server options
	EnableEventLogging bool `env:"ENABLE_EVENT_LOGGING" env-default:"true"`

	S3 S3Config
}

// S3Config represents configuration for the S3 blob backend
type S3Config struct {
	Region          string `env:"S3_REGION" env-default:"us-east-1"`
	Bucket          string `env:"S3_BUCKET"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	Endpoint        string `env:"S3_ENDPOINT"`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	CreateBucket    bool   `env:"S3_CREATE_BUCKET_IF_NOT_EXIST" env-default:"false"`
}

// Load reads configuration from the environment on top of defaults
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	// A set DATABASE_URL implies the postgres repository, but an explicit
	// REPOSITORY_TYPE always wins.
	if cfg.DatabaseURL != "" && os.Getenv("REPOSITORY_TYPE") == "" {
		cfg.RepositoryType = "postgres"
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

	switch c.RepositoryType {
	case "memory", "fs":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using postgres")
		}
	default:
		return fmt.Errorf("unsupported repository type: %s", c.RepositoryType)
	}

	switch c.StorageBackend {
	case "memory", "fs":
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("s3_bucket is required when using s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage backend type: %s", c.StorageBackend)
	}

	if (c.RepositoryType == "fs" || c.StorageBackend == "fs") && c.DataDir == "" {
		return errors.New("data_dir is required for filesystem persistence")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (simplesource.Service, simplesource.BlobStore, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	blobs, err := c.buildBlobStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	options := []simplesource.Option{
		simplesource.WithRepository(repo),
		simplesource.WithBlobStore(blobs),
		simplesource.WithSender(webhook.New(blobs)),
	}
	if c.EnableEventLogging {
		options = append(options, simplesource.WithEventSink(simplesource.NewLoggingEventSink(logger)))
	}

	svc, err := simplesource.New(options...)
	if err != nil {
		return nil, nil, err
	}

	// Seed the configured endpoint when nothing is stored yet; a value the
	// user saved through the API always wins.
	if c.WebhookURL != "" {
		settings, err := repo.LoadSettings(ctx)
		if err != nil {
			return nil, nil, err
		}
		if settings.WebhookURL == "" {
			if err := repo.SaveSettings(ctx, &simplesource.Settings{WebhookURL: c.WebhookURL}); err != nil {
				return nil, nil, err
			}
		}
	}

	return svc, blobs, nil
}

// buildRepository creates a SourceRepository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (simplesource.SourceRepository, error) {
	switch c.RepositoryType {
	case "memory":
		return memrepo.New(), nil
	case "fs":
		return fsrepo.New(filepath.Join(c.DataDir, "meta"))
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		return pgrepo.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported repository type: %s", c.RepositoryType)
	}
}
