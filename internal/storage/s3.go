package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/recipebook/backend/config"
)

// S3Backend stores objects in an S3 bucket.
type S3Backend struct {
	cfg       *config.S3Config
	endpoint  string
	publicURL string
}

// NewS3Backend wraps an S3 client. endpoint is set for S3-compatible services
// addressed path-style; publicURL overrides the URL prefix of objects.
func NewS3Backend(cfg *config.S3Config, endpoint, publicURL string) *S3Backend {
	return &S3Backend{
		cfg:       cfg,
		endpoint:  strings.TrimRight(endpoint, "/"),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// EnsureBucket creates the bucket when missing and allows public reads under public/.
func (b *S3Backend) EnsureBucket(ctx context.Context) error {
	_, err := b.cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.cfg.BucketName)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(b.cfg.BucketName)}
	if b.cfg.Region != "" && b.cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.cfg.Region),
		}
	}
	if _, err := b.cfg.Client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", b.cfg.BucketName, err)
	}
	return b.cfg.SetupBucketPolicy(ctx)
}

// Put uploads an object to the configured bucket.
func (b *S3Backend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := b.cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.cfg.BucketName),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	return err
}

func (b *S3Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.cfg.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (b *S3Backend) Delete(ctx context.Context, key string) error {
	_, err := b.cfg.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.cfg.BucketName),
		Key:    aws.String(key),
	})
	return err
}

// URL returns the public URL of key.
func (b *S3Backend) URL(key string) string {
	switch {
	case b.publicURL != "":
		return b.publicURL + "/" + key
	case b.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", b.endpoint, b.cfg.BucketName, key)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", b.cfg.BucketName, key)
	}
}

func (b *S3Backend) Bucket() string {
	return b.cfg.BucketName
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
