package conversion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abodd44/hashdocker-document-hub/internal/storage"
)

// gateConverter blocks until release is closed, then applies fn.
type gateConverter struct {
	release chan struct{}
	fn      func(Request) (Preview, error)
}

func (g *gateConverter) Convert(ctx context.Context, req Request) (Preview, error) {
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return Preview{}, ctx.Err()
		}
	}
	return g.fn(req)
}

func waitDone(t *testing.T, p *Pool, docID string) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		j, err := p.Latest(context.Background(), docID)
		if err != nil {
			return false
		}
		job = j
		return j.Done()
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func TestPoolConvertsAndCallsBack(t *testing.T) {
	blobs := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, blobs.UploadFile(ctx, "documents/1234567/d1/assignment.docx", strings.NewReader("docx"), 4, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"))

	p := NewPool(NewMemoryStore(), &BlobConverter{Blobs: blobs}, 2, 4)
	var mu sync.Mutex
	completed := map[string]string{}
	p.OnComplete(func(_ context.Context, j *Job) {
		mu.Lock()
		defer mu.Unlock()
		completed[j.DocID] = j.Status
	})
	p.Start(ctx)
	defer p.Stop(ctx)

	job, err := p.Enqueue(ctx, Request{
		DocID:       "d1",
		FileKey:     "documents/1234567/d1/assignment.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		FileName:    "assignment.docx",
	})
	require.NoError(t, err)
	require.Equal(t, StatusQueued, job.Status)

	done := waitDone(t, p, "d1")
	require.Equal(t, StatusReady, done.Status)
	require.Equal(t, "previews/d1/assignment.docx", done.PreviewKey)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", done.PreviewType)
	require.True(t, blobs.Exists("previews/d1/assignment.docx"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return completed["d1"] == StatusReady
	}, time.Second, 10*time.Millisecond)
}

func TestPoolRecordsFailure(t *testing.T) {
	ctx := context.Background()
	p := NewPool(NewMemoryStore(), &gateConverter{fn: func(Request) (Preview, error) {
		return Preview{}, errors.New("renderer crashed")
	}}, 1, 1)
	p.Start(ctx)
	defer p.Stop(ctx)

	_, err := p.Enqueue(ctx, Request{DocID: "d2", FileKey: "k"})
	require.NoError(t, err)
	done := waitDone(t, p, "d2")
	require.Equal(t, StatusFailed, done.Status)
	require.Equal(t, "renderer crashed", done.Error)
}

func TestPoolQueueFull(t *testing.T) {
	ctx := context.Background()
	gate := &gateConverter{release: make(chan struct{}), fn: func(r Request) (Preview, error) { return Preview{Key: r.FileKey}, nil }}
	p := NewPool(NewMemoryStore(), gate, 1, 1)
	p.Start(ctx)

	// first job occupies the worker, second fills the queue
	_, err := p.Enqueue(ctx, Request{DocID: "a", FileKey: "a"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		j, _ := p.Latest(ctx, "a")
		return j != nil && j.Status == StatusConverting
	}, time.Second, 5*time.Millisecond)
	_, err = p.Enqueue(ctx, Request{DocID: "b", FileKey: "b"})
	require.NoError(t, err)

	job, err := p.Enqueue(ctx, Request{DocID: "c", FileKey: "c"})
	require.ErrorIs(t, err, ErrQueueFull)
	require.Equal(t, StatusFailed, job.Status)

	close(gate.release)
	require.NoError(t, p.Stop(ctx))
	require.Equal(t, StatusReady, waitDone(t, p, "b").Status)

	_, err = p.Enqueue(ctx, Request{DocID: "d", FileKey: "d"})
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolStopTimesOut(t *testing.T) {
	gate := &gateConverter{release: make(chan struct{}), fn: func(r Request) (Preview, error) { return Preview{Key: r.FileKey}, nil }}
	p := NewPool(NewMemoryStore(), gate, 1, 1)
	p.Start(context.Background())
	_, err := p.Enqueue(context.Background(), Request{DocID: "slow", FileKey: "k"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, p.Stop(ctx))
	close(gate.release)
}

func TestPreviewKeyAndPreviewable(t *testing.T) {
	require.Equal(t, "previews/d1/report.pdf", PreviewKey("d1", "report.xlsx", ".pdf"))
	require.Equal(t, "previews/d1/notes.doc", PreviewKey("d1", `C:\Users\me\notes.doc`, ".doc"))
	require.Equal(t, "previews/d1/document", PreviewKey("d1", "", ""))

	require.True(t, Previewable("application/pdf"))
	require.True(t, Previewable("text/plain; charset=utf-8"))
	require.True(t, Previewable("image/png"))
	require.False(t, Previewable("application/msword"))
}

func TestBlobConverterPassthrough(t *testing.T) {
	c := &BlobConverter{Blobs: storage.NewMemoryStorage()}
	p, err := c.Convert(context.Background(), Request{DocID: "d", FileKey: "documents/x.pdf", ContentType: "application/pdf"})
	require.NoError(t, err)
	require.Equal(t, Preview{Key: "documents/x.pdf", ContentType: "application/pdf"}, p)

	_, err = c.Convert(context.Background(), Request{DocID: "d", FileKey: "missing.doc", ContentType: "application/msword", FileName: "missing.doc"})
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = c.Convert(context.Background(), Request{DocID: "d"})
	require.Error(t, err)
}
