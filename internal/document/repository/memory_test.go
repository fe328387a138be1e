package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abodd44/hashdocker-document-hub/internal/document"
)

func TestMemoryRepoCRUD(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	d := &document.Document{Title: "Essay", Status: document.StatusPending, UserID: "1234567"}
	require.NoError(t, r.Create(ctx, d))
	require.NotEmpty(t, d.ID)
	require.ErrorIs(t, r.Create(ctx, d), ErrDuplicate)

	got, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "Essay", got.Title)

	// returned values are copies
	got.Title = "changed"
	again, _ := r.Get(ctx, d.ID)
	require.Equal(t, "Essay", again.Title)

	got.Status = document.StatusApproved
	require.NoError(t, r.Update(ctx, got))
	got2, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, document.StatusApproved, got2.Status)

	require.ErrorIs(t, r.Update(ctx, &document.Document{ID: "missing"}), ErrNotFound)

	require.NoError(t, r.Delete(ctx, d.ID))
	_, err = r.Get(ctx, d.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, d.ID), ErrNotFound)
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		require.NoError(t, r.Create(ctx, &document.Document{
			Title:     title,
			UserID:    "1234567",
			Status:    document.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, r.Create(ctx, &document.Document{Title: "draft", UserID: "1234567", IsDraft: true, Status: document.StatusPending, CreatedAt: base}))

	list, err := r.List(ctx, document.Filter{Drafts: document.Bool(false)})
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "third", list[0].Title)
	require.Equal(t, "first", list[2].Title)

	limited, err := r.List(ctx, document.Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)

	drafts, err := r.List(ctx, document.Filter{Drafts: document.Bool(true)})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
}

func TestMemoryRepoUpdateRejectsStaleCopy(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	d := &document.Document{Title: "Essay", Status: document.StatusPending, UserID: "1234567"}
	require.NoError(t, r.Create(ctx, d))

	first, _ := r.Get(ctx, d.ID)
	second, _ := r.Get(ctx, d.ID)

	first.Status = document.StatusApproved
	require.NoError(t, r.Update(ctx, first))
	require.Equal(t, int64(1), first.Version)

	second.Title = "Essay v2"
	require.ErrorIs(t, r.Update(ctx, second), ErrConflict)

	got, _ := r.Get(ctx, d.ID)
	require.Equal(t, document.StatusApproved, got.Status)
	require.Equal(t, "Essay", got.Title)
}

func TestMemoryRepoSetConversionChecksFileKey(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	d := &document.Document{Title: "Essay", Status: document.StatusPending, FileKey: "documents/1/a.docx", ConversionStatus: "queued"}
	require.NoError(t, r.Create(ctx, d))
	stale, _ := r.Get(ctx, d.ID)

	require.ErrorIs(t, r.SetConversion(ctx, d.ID, document.Conversion{FileKey: "documents/1/old.docx", Status: "failed"}), ErrNotFound)
	require.ErrorIs(t, r.SetConversion(ctx, "missing", document.Conversion{FileKey: d.FileKey, Status: "failed"}), ErrNotFound)

	require.NoError(t, r.SetConversion(ctx, d.ID, document.Conversion{
		FileKey:     d.FileKey,
		Status:      "ready",
		PreviewKey:  "previews/1/a.docx",
		PreviewType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}))
	got, _ := r.Get(ctx, d.ID)
	require.Equal(t, "ready", got.ConversionStatus)
	require.Equal(t, "previews/1/a.docx", got.PreviewKey)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", got.PreviewContentType())

	// copies read before the conversion landed can no longer overwrite it
	stale.Status = document.StatusApproved
	require.ErrorIs(t, r.Update(ctx, stale), ErrConflict)
}
