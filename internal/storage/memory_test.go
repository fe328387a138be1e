package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/abodd44/hashdocker-document-hub/internal/config"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageRoundTrip(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.UploadFile(ctx, "documents/a.txt", strings.NewReader("hello"), 5, "text/plain"))
	rc, err := s.DownloadFile(ctx, "documents/a.txt")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))

	require.NoError(t, s.CopyFile(ctx, "documents/a.txt", "previews/a.txt"))
	require.True(t, s.Exists("previews/a.txt"))
	require.Equal(t, 2, s.Len())

	require.NoError(t, s.RemoveFile(ctx, "documents/a.txt"))
	_, err = s.DownloadFile(ctx, "documents/a.txt")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.CopyFile(ctx, "missing", "x"), ErrNotFound)

	_, err = s.GetPresignedURL(ctx, "previews/a.txt", time.Minute)
	require.ErrorIs(t, err, ErrPresignUnsupported)
}

func TestMinIOConfigFrom(t *testing.T) {
	c := MinIOConfigFrom(config.StorageConfig{Endpoint: "minio:9000", AccessKey: "k", SecretKey: "s"})
	require.Equal(t, "hashdoc", c.Bucket)
	require.Equal(t, "minio:9000", c.Endpoint)

	_, err := NewMinIOStorage(context.Background(), &MinIOConfig{})
	require.Error(t, err)
}
