package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Store persists uploaded media and returns the URL it is served from.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the Store selected by cfg.Backend.
func New(ctx context.Context, cfg *Config) (Store, error) {
	switch cfg.Backend {
	case BackendS3:
		return NewS3Store(ctx, cfg)
	case BackendLocal, "":
		return NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ObjectKey builds "<folder>/<name>" and rejects traversal.
func ObjectKey(folder, name string) (string, error) {
	key := path.Clean(path.Join(folder, name))
	if strings.HasPrefix(key, "..") || strings.HasPrefix(key, "/") || !strings.HasPrefix(key, folder+"/") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return key, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
