package conversion

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/abodd44/hashdocker-document-hub/internal/storage"
)

// Preview is a stored conversion result.
type Preview struct {
	Key         string
	ContentType string
}

// Converter produces a preview artifact and returns where it was stored.
type Converter interface {
	Convert(ctx context.Context, req Request) (Preview, error)
}

// Previewable reports whether browsers display the content type inline.
func Previewable(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return ct == "application/pdf" || ct == "text/plain" || strings.HasPrefix(ct, "image/")
}

// BlobConverter reuses previewable uploads as their own preview and copies
// office formats to previews/<docID>/<name> unchanged, keeping their media
// type. It does not render; a rendering backend can replace it behind the
// Converter interface and report application/pdf.
type BlobConverter struct {
	Blobs storage.Store
}

func (b *BlobConverter) Convert(ctx context.Context, req Request) (Preview, error) {
	if req.FileKey == "" {
		return Preview{}, fmt.Errorf("conversion of %s: empty file key", req.DocID)
	}
	if Previewable(req.ContentType) {
		return Preview{Key: req.FileKey, ContentType: req.ContentType}, nil
	}
	dst := PreviewKey(req.DocID, req.FileName, path.Ext(baseName(req.FileName)))
	if err := b.Blobs.CopyFile(ctx, req.FileKey, dst); err != nil {
		return Preview{}, fmt.Errorf("copy %s to %s: %w", req.FileKey, dst, err)
	}
	return Preview{Key: dst, ContentType: req.ContentType}, nil
}

// PreviewKey is the storage key of a generated preview with extension ext.
func PreviewKey(docID, fileName, ext string) string {
	base := baseName(fileName)
	return "previews/" + docID + "/" + strings.TrimSuffix(base, path.Ext(base)) + ext
}

func baseName(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "document"
	}
	return base
}
