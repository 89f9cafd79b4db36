// Package storage uploads recipe images to an object store and builds their
// public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/recipebook/backend/config"
)

// ErrObjectExists is returned when an upload would overwrite an object.
var ErrObjectExists = errors.New("the resource already exists")

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Bucket() string
}

// NewBackend builds the backend selected by cfg.Provider.
func NewBackend(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Provider {
	case "s3":
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to configure s3: %w", err)
		}
		return NewS3Backend(s3cfg, cfg.Endpoint, cfg.PublicBaseURL), nil
	case "minio":
		return NewMinioBackend(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}
