package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shenikar/civic_incident_tracker/internal/config"
	"github.com/shenikar/civic_incident_tracker/internal/service"
)

// S3BlobStore хранит изображения обращений в S3-совместимом хранилище (S3, R2, MinIO)
type S3BlobStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3BlobStore создает клиент хранилища по настройкам S3_*
func NewS3BlobStore(cfg *config.Config) service.BlobStore {
	opts := s3.Options{
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		),
		Region: cfg.S3Region,
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
		// MinIO и локальные эндпоинты не поддерживают virtual-hosted адресацию
		opts.UsePathStyle = true
	}

	return &S3BlobStore{
		client:    s3.New(opts),
		bucket:    cfg.S3Bucket,
		publicURL: strings.TrimRight(cfg.S3PublicURL, "/"),
	}
}

// Upload загружает объект и возвращает его публичный URL
func (s *S3BlobStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}
