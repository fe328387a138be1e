package conversion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
	"github.com/abodd44/hashdocker-document-hub/pkg/metrics"
)

// Pool runs conversions on a fixed number of workers fed by a bounded queue.
type Pool struct {
	store   Store
	conv    Converter
	workers int
	timeout time.Duration

	queue      chan *Job
	onComplete func(context.Context, *Job)

	mu      sync.Mutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewPool creates a stopped pool. workers and queueSize below 1 are raised to 1.
func NewPool(store Store, conv Converter, workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		store:   store,
		conv:    conv,
		workers: workers,
		timeout: 2 * time.Minute,
		queue:   make(chan *Job, queueSize),
	}
}

// OnComplete registers a callback invoked after a job reaches ready or failed.
// Must be called before Start.
func (p *Pool) OnComplete(fn func(context.Context, *Job)) {
	p.onComplete = fn
}

// Start launches the workers. They exit once Stop closes the queue and it drains.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}
	logger.Infof("conversion pool started workers=%d queue=%d", p.workers, cap(p.queue))
}

// Enqueue stores a queued job and hands it to the workers without blocking.
// The returned job is a snapshot taken at enqueue time.
func (p *Pool) Enqueue(ctx context.Context, req Request) (*Job, error) {
	job := newJob(uuid.NewString(), req)
	if err := p.store.Save(ctx, job); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	snapshot := *job
	select {
	case p.queue <- job:
		p.mu.Unlock()
		return &snapshot, nil
	default:
		p.mu.Unlock()
	}

	p.finish(ctx, job, Preview{}, ErrQueueFull)
	return job, ErrQueueFull
}

// Latest returns the most recent job for docID.
func (p *Pool) Latest(ctx context.Context, docID string) (*Job, error) {
	return p.store.Latest(ctx, docID)
}

// Forget drops the job history of a deleted document.
func (p *Pool) Forget(ctx context.Context, docID string) error {
	return p.store.DeleteForDoc(ctx, docID)
}

// Stop refuses new jobs and waits for queued ones to finish or ctx to expire.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("conversion pool stop: %w", ctx.Err())
	}
}

func (p *Pool) work(ctx context.Context, n int) {
	defer p.wg.Done()
	for job := range p.queue {
		job.Status = StatusConverting
		job.UpdatedAt = time.Now().UTC()
		if err := p.store.Save(ctx, job); err != nil {
			logger.Warnf("conversion worker %d: save job %s: %v", n, job.JobID, err)
		}

		jctx, cancel := context.WithTimeout(ctx, p.timeout)
		preview, err := p.conv.Convert(jctx, job.request())
		cancel()
		p.finish(ctx, job, preview, err)
	}
}

func (p *Pool) finish(ctx context.Context, job *Job, preview Preview, err error) {
	job.UpdatedAt = time.Now().UTC()
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		metrics.ConversionJobs.WithLabelValues(StatusFailed).Inc()
		logger.Warnf("conversion failed doc=%s job=%s: %v", job.DocID, job.JobID, err)
	} else {
		job.Status = StatusReady
		job.PreviewKey = preview.Key
		job.PreviewType = preview.ContentType
		metrics.ConversionJobs.WithLabelValues(StatusReady).Inc()
		logger.Debugf("conversion ready doc=%s job=%s preview=%s type=%s", job.DocID, job.JobID, preview.Key, preview.ContentType)
	}
	if serr := p.store.Save(ctx, job); serr != nil {
		logger.Warnf("save conversion job %s: %v", job.JobID, serr)
	}
	if p.onComplete != nil {
		p.onComplete(ctx, job)
	}
}
