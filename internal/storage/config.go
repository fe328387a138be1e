package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/abodd44/hashdocker-document-hub/internal/config"
)

var (
	ErrNotFound           = errors.New("object not found")
	ErrPresignUnsupported = errors.New("presigned urls not supported by this store")
)

// Store is the blob storage used for uploaded files and their previews.
type Store interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	CopyFile(ctx context.Context, srcKey, dstKey string) error
	RemoveFile(ctx context.Context, key string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// MinIOConfigFrom maps the storage section of the application config.
func MinIOConfigFrom(c config.StorageConfig) *MinIOConfig {
	bucket := c.Bucket
	if bucket == "" {
		bucket = "hashdoc"
	}
	return &MinIOConfig{
		Endpoint:  c.Endpoint,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		UseSSL:    c.UseSSL,
		Bucket:    bucket,
	}
}
