package s3storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lfmartins/importflow/internal/config"
)

// Storage wraps MinIO/S3 interactions for the import bucket. The worker only
// ever reads; uploads belong to the producer side.
type Storage struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// New creates a MinIO client from the Config.
func New(cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure:       cfg.S3UseSSL,
		Region:       cfg.S3Region,
		BucketLookup: bucketLookup(cfg.S3PathStyle),
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{
		client: client,
		bucket: cfg.S3Bucket,
		logger: logger.With(slog.String("component", "s3storage")),
	}, nil
}

func bucketLookup(pathStyle bool) minio.BucketLookupType {
	if pathStyle {
		return minio.BucketLookupPath
	}
	return minio.BucketLookupAuto
}

// Download fetches the file bytes for a notification path. The path may be a
// bare object key or a full locator URI; either resolves to the same key.
func (s *Storage) Download(ctx context.Context, s3Path string) ([]byte, error) {
	key := s.extractKey(s3Path)
	s.logger.Info("downloading object", slog.String("key", key))

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}

	s.logger.Info("downloaded object", slog.String("key", key), slog.Int("bytes", len(data)))
	return data, nil
}

// extractKey reduces a locator to the object key. Absolute URIs lose their
// scheme and host, and a leading bucket-name segment is stripped so keys work
// with both path-style and virtual-host-style locators.
func (s *Storage) extractKey(s3Path string) string {
	u, err := url.Parse(s3Path)
	if err != nil || u.Scheme == "" {
		return s3Path
	}
	key := strings.TrimPrefix(u.Path, "/")
	if rest, ok := strings.CutPrefix(key, s.bucket+"/"); ok {
		return rest
	}
	return key
}
