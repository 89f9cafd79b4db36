package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/recipebook/backend/config"
)

// MinioBackend stores objects in a MinIO bucket.
type MinioBackend struct {
	client    *minio.Client
	bucket    string
	baseURL   string
	publicURL string
}

// NewMinioBackend constructs a MinIO client from config.
func NewMinioBackend(cfg config.StorageConfig) (*MinioBackend, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("minio access key and secret key are required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("minio bucket is required")
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &MinioBackend{
		client:    client,
		bucket:    cfg.Bucket,
		baseURL:   client.EndpointURL().String(),
		publicURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// EnsureBucket ensures the configured bucket exists and serves public/ anonymously.
func (m *MinioBackend) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"AWS": ["*"]},
			"Action": ["s3:GetObject"],
			"Resource": ["arn:aws:s3:::%s/public/*"]
		}]
	}`, m.bucket)
	return m.client.SetBucketPolicy(ctx, m.bucket, policy)
}

// Put uploads an object to the configured bucket.
func (m *MinioBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *MinioBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}

// Delete removes an object from the configured bucket.
func (m *MinioBackend) Delete(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// URL returns the public URL of key.
func (m *MinioBackend) URL(key string) string {
	if m.publicURL != "" {
		return m.publicURL + "/" + key
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(m.baseURL, "/"), m.bucket, key)
}

// Bucket returns the configured bucket name.
func (m *MinioBackend) Bucket() string {
	return m.bucket
}
