package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnsupportedImageType is returned for file extensions that are not images.
var ErrUnsupportedImageType = errors.New("unsupported image type")

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "heic": true,
}

// ImageStore uploads recipe images under public/.
type ImageStore struct {
	backend ObjectStorage
	log     *zap.Logger
	now     func() time.Time
}

func NewImageStore(backend ObjectStorage, log *zap.Logger) *ImageStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImageStore{backend: backend, log: log, now: time.Now}
}

// UploadRecipeImage stores the image at public/<userID>_<unixMillis>.<ext>
// without overwriting and returns its path and public URL.
func (s *ImageStore) UploadRecipeImage(ctx context.Context, userID, fileExt string, r io.Reader, size int64) (string, string, error) {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(fileExt), "."))
	if !imageExtensions[ext] {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedImageType, fileExt)
	}
	if userID == "" {
		return "", "", errors.New("user id is required")
	}

	path := fmt.Sprintf("public/%s_%d.%s", userID, s.now().UnixMilli(), ext)
	exists, err := s.backend.Exists(ctx, path)
	if err != nil {
		return "", "", fmt.Errorf("failed to check %s: %w", path, err)
	}
	if exists {
		return "", "", ErrObjectExists
	}

	if err := s.backend.Put(ctx, path, r, size, "image/"+ext); err != nil {
		return "", "", fmt.Errorf("failed to upload %s: %w", path, err)
	}

	url := s.PublicURL(path)
	s.log.Info("uploaded recipe image", zap.String("path", path), zap.String("user_id", userID))
	return path, url, nil
}

// PublicURL returns the URL under which path is served.
func (s *ImageStore) PublicURL(path string) string {
	return s.backend.URL(path)
}
