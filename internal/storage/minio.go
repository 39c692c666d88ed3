package storage

import (
	"context"
	"fmt"

	"hlstranscoder/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore talks to MinIO or any S3-compatible endpoint via minio-go.
type MinioStore struct {
	client *minio.Client
}

func NewMinioStore(cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{client: client}, nil
}

func (s *MinioStore) Download(ctx context.Context, bucket, key, localPath string) error {
	return s.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{})
}

func (s *MinioStore) Upload(ctx context.Context, bucket, key, localPath, contentType string) error {
	_, err := s.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// BucketExists reports whether bucket exists and is accessible.
func (s *MinioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return s.client.BucketExists(ctx, bucket)
}
