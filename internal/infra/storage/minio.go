package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3互換ストレージ。プレビューは公開バケット、原本は非公開バケット。
type MinioStorage struct {
	client   *minio.Client
	endpoint string
	useSSL   bool
}

func NewMinioStorage(endpoint string, accessKey string, secretKey string, useSSL bool) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect storage failed: %w", err)
	}

	return &MinioStorage{
		client:   client,
		endpoint: endpoint,
		useSSL:   useSSL,
	}, nil
}

func (s *MinioStorage) Upload(ctx context.Context, bucket string, path string, data io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, path, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s/%s failed: %w", bucket, path, err)
	}
	return nil
}

// 公開バケットの参照URL
func (s *MinioStorage) PublicURL(bucket string, path string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, bucket, path)
}

// 期限付きの署名URL。期限が切れたら再リクエストする。
func (s *MinioStorage) SignedURL(ctx context.Context, bucket string, path string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, path, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("sign %s/%s failed: %w", bucket, path, err)
	}
	return u.String(), nil
}
