package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docvault/internal/config"
	"docvault/internal/domain"
)

const s3KeyPrefix = "documents/"

// S3Store keeps blobs in an S3-compatible bucket.
// Locators are object keys of the form documents/<uuid>/<sanitized name>.
type S3Store struct {
	cl     *minio.Client
	bucket string
	logger *slog.Logger
}

// NewS3Store connects to the endpoint and creates the bucket if it is missing
func NewS3Store(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (*S3Store, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	exists, err := cl.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cl.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("bucket created", "bucket", cfg.Bucket)
	}

	logger.Info("s3 blob store ready", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return &S3Store{cl: cl, bucket: cfg.Bucket, logger: logger}, nil
}

// Store streams r into a new object
func (s *S3Store) Store(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	key := s3KeyPrefix + uuid.NewString() + "/" + sanitizeName(suggestedName)

	info, err := s.cl.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	s.logger.Debug("object stored", "key", key, "size", info.Size)
	return key, nil
}

// Retrieve opens the object. The stat up front turns a missing key into ErrNotFound.
func (s *S3Store) Retrieve(ctx context.Context, locator string) (io.ReadCloser, error) {
	if _, err := s.cl.StatObject(ctx, s.bucket, locator, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("blob %s: %w", locator, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("stat object %s: %w", locator, err)
	}

	obj, err := s.cl.GetObject(ctx, s.bucket, locator, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", locator, err)
	}
	return obj, nil
}

// Delete removes the object. Removing a missing key succeeds.
func (s *S3Store) Delete(ctx context.Context, locator string) error {
	if err := s.cl.RemoveObject(ctx, s.bucket, locator, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", locator, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
