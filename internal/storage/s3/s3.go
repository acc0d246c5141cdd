package s3

import (
	"context"
	"fmt"
	"path"
	"strings"

	"gallery_keeper/internal/storage"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// Storage удаляет изображения из S3-совместимого хранилища.
type Storage struct {
	cl     *minio.Client
	bucket string
	prefix string
}

func New(cfg Config) (*Storage, error) {
	const op = "storage.s3.New"

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}

	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%s: bucket is required", op)
	}

	return &Storage{
		cl:     cl,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Key returns the object key for a public id.
func (s *Storage) Key(publicID string) string {
	if s.prefix == "" {
		return publicID
	}
	return path.Join(s.prefix, publicID)
}

func (s *Storage) Delete(ctx context.Context, publicID string) error {
	const op = "storage.s3.Delete"

	if publicID == "" || strings.Contains(publicID, "/") {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidPublicID)
	}

	err := s.cl.RemoveObject(ctx, s.bucket, s.Key(publicID), minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("%s: %w", op, storage.ErrFileNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
