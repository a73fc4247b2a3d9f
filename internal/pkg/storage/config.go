package storage

import (
	"errors"
	"strings"

	"github.com/ManuelReschke/StreamFox/internal/pkg/env"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config selects and configures the upload backend.
type Config struct {
	Backend string

	// local
	UploadDir     string
	PublicBaseURL string

	// s3
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicURL       string // Base URL objects are served from (CDN or bucket website)
}

// LoadConfig loads storage configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Backend:         strings.ToLower(env.GetEnv("STORAGE_BACKEND", BackendLocal)),
		UploadDir:       env.GetEnv("UPLOAD_DIR", "./public/uploads"),
		PublicBaseURL:   env.GetEnv("UPLOAD_PUBLIC_PATH", "/uploads"),
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicURL:       env.GetEnv("S3_PUBLIC_URL", ""),
	}

	switch cfg.Backend {
	case BackendLocal:
		if cfg.UploadDir == "" {
			return nil, errors.New("UPLOAD_DIR is required for local storage")
		}
	case BackendS3:
		if cfg.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when STORAGE_BACKEND=s3")
		}
		if cfg.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when STORAGE_BACKEND=s3")
		}
		if cfg.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when STORAGE_BACKEND=s3")
		}
	default:
		return nil, errors.New("STORAGE_BACKEND must be local or s3")
	}

	return cfg, nil
}
