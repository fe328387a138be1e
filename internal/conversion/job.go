// Package conversion turns uploaded documents into previewable artifacts on a bounded worker pool.
package conversion

import (
	"errors"
	"time"
)

// Job statuses.
const (
	StatusQueued     = "queued"
	StatusConverting = "converting"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

var (
	ErrJobNotFound = errors.New("conversion job not found")
	ErrQueueFull   = errors.New("conversion queue full")
	ErrPoolClosed  = errors.New("conversion pool stopped")
)

// Request describes the file to convert.
type Request struct {
	DocID       string
	FileKey     string
	ContentType string
	FileName    string
}

// Job is the persisted state of one conversion.
type Job struct {
	JobID       string    `bson:"jobId" json:"jobId"`
	DocID       string    `bson:"docId" json:"docId"`
	Status      string    `bson:"status" json:"status"`
	FileKey     string    `bson:"fileKey" json:"-"`
	ContentType string    `bson:"contentType" json:"contentType"`
	FileName    string    `bson:"fileName" json:"fileName"`
	PreviewKey  string    `bson:"previewKey,omitempty" json:"-"`
	PreviewType string    `bson:"previewType,omitempty" json:"previewType,omitempty"`
	Error       string    `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Done reports whether the job reached a final state.
func (j *Job) Done() bool { return j.Status == StatusReady || j.Status == StatusFailed }

func (j *Job) request() Request {
	return Request{DocID: j.DocID, FileKey: j.FileKey, ContentType: j.ContentType, FileName: j.FileName}
}
