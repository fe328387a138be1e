package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/abodd44/hashdocker-document-hub/internal/conversion"
	"github.com/abodd44/hashdocker-document-hub/internal/document"
	"github.com/abodd44/hashdocker-document-hub/internal/document/repository"
	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/internal/storage"
	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
	"github.com/abodd44/hashdocker-document-hub/pkg/metrics"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid document state")
	ErrInvalidInput    = errors.New("invalid document")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrNotEnrolled     = errors.New("student is not enrolled in course")
)

// MinTitleLength is the shortest accepted document title.
const MinTitleLength = 3

// RecentLimit is the number of recent submissions on the admin dashboard.
const RecentLimit = 5

// writeAttempts bounds how often a read-modify-write is retried after losing a race.
const writeAttempts = 3

// Notifier is told about submissions and review decisions.
type Notifier interface {
	DocumentUploaded(ctx context.Context, d *document.Document) error
	DocumentStatusChanged(ctx context.Context, d *document.Document) error
}

// Converter queues preview conversions.
type Converter interface {
	Enqueue(ctx context.Context, req conversion.Request) (*conversion.Job, error)
	Forget(ctx context.Context, docID string) error
}

// Enrollment answers whether a student takes a course.
type Enrollment interface {
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
}

// Deps are the collaborators of Service. Notifier, Conversion and Courses are optional.
type Deps struct {
	Repo       repository.Repository
	Blobs      storage.Store
	Notifier   Notifier
	Conversion Converter
	Courses    Enrollment
}

type Options struct {
	MaxBytes     int64
	AllowedTypes []string
	// PresignTTL > 0 makes Open return presigned URLs when the store supports them.
	PresignTTL time.Duration
}

// Service implements document submission and review.
type Service struct {
	repo    repository.Repository
	blobs   storage.Store
	notify  Notifier
	convert Converter
	courses Enrollment
	opts    Options
	now     func() time.Time
}

func New(d Deps, o Options) *Service {
	if o.MaxBytes <= 0 {
		o.MaxBytes = 5 << 20
	}
	return &Service{
		repo:    d.Repo,
		blobs:   d.Blobs,
		notify:  d.Notifier,
		convert: d.Conversion,
		courses: d.Courses,
		opts:    o,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FileInput is an uploaded file as received from the client.
type FileInput struct {
	Name    string
	Size    int64
	Content io.Reader
}

type UploadInput struct {
	Title    string
	Type     document.Type
	CourseID string
	Draft    bool
	File     FileInput
}

// sniffedFile is a validated upload held in memory (bounded by MaxBytes).
type sniffedFile struct {
	name        string
	contentType string
	data        []byte
}

// readFile enforces the size limit and sniffs the content type from the bytes.
func (s *Service) readFile(f FileInput) (*sniffedFile, error) {
	if f.Content == nil {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if f.Size > s.opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, f.Size, s.opts.MaxBytes)
	}
	data, err := io.ReadAll(io.LimitReader(f.Content, s.opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, s.opts.MaxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	mt := mimetype.Detect(data)
	ct, ok := s.allowed(mt)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, mt.String())
	}
	return &sniffedFile{name: cleanFileName(f.Name), contentType: ct, data: data}, nil
}

// allowed walks the detected type and its parents; audio and video never pass.
func (s *Service) allowed(mt *mimetype.MIME) (string, bool) {
	if m := mt.String(); strings.HasPrefix(m, "audio/") || strings.HasPrefix(m, "video/") {
		return "", false
	}
	for m := mt; m != nil; m = m.Parent() {
		for _, a := range s.opts.AllowedTypes {
			if m.Is(a) {
				return a, true
			}
		}
	}
	return "", false
}

func cleanFileName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "document"
	}
	return base
}

func fileKey(userID, docID, name string) string {
	return "documents/" + userID + "/" + docID + "/" + name
}

func validTitle(title string) bool {
	return len([]rune(strings.TrimSpace(title))) >= MinTitleLength
}

func (s *Service) checkEnrollment(ctx context.Context, actor models.Actor, courseID string) error {
	if courseID == "" || s.courses == nil {
		return nil
	}
	ok, err := s.courses.IsEnrolled(ctx, actor.ID, courseID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotEnrolled, courseID)
	}
	return nil
}

// Upload stores a new submission, or a draft when in.Draft is set.
// Submissions start pending, notify the admins and queue a preview conversion.
func (s *Service) Upload(ctx context.Context, actor models.Actor, in UploadInput) (*document.Document, error) {
	if actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only students upload documents", ErrForbidden)
	}
	if !validTitle(in.Title) {
		return nil, fmt.Errorf("%w: title must be at least %d characters", ErrInvalidInput, MinTitleLength)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, in.Type)
	}
	if err := s.checkEnrollment(ctx, actor, in.CourseID); err != nil {
		return nil, err
	}
	f, err := s.readFile(in.File)
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &document.Document{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(in.Title),
		Type:             in.Type,
		OriginalFileName: f.name,
		ContentType:      f.contentType,
		Size:             int64(len(f.data)),
		Status:           document.StatusPending,
		CourseID:         in.CourseID,
		UserID:           actor.ID,
		UserName:         actor.Name,
		IsDraft:          in.Draft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	d.FileKey = fileKey(actor.ID, d.ID, f.name)
	s.markQueued(d)
	if err := s.blobs.UploadFile(ctx, d.FileKey, bytes.NewReader(f.data), d.Size, d.ContentType); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}
	if err := s.repo.Create(ctx, d); err != nil {
		s.removeBlob(ctx, d.FileKey)
		return nil, fmt.Errorf("create document: %w", err)
	}
	metrics.DocumentsUploaded.WithLabelValues(string(d.Type), fmt.Sprint(d.IsDraft)).Inc()
	logger.Infof("document uploaded id=%s user=%s type=%s draft=%v", d.ID, d.UserID, d.Type, d.IsDraft)

	if !d.IsDraft {
		s.submitted(ctx, d)
	}
	return d, nil
}

// submitted runs the side effects of a new submission. Failures are logged, not returned.
func (s *Service) submitted(ctx context.Context, d *document.Document) {
	s.enqueue(ctx, d)
	if s.notify != nil {
		if err := s.notify.DocumentUploaded(ctx, d); err != nil {
			logger.Warnf("notify upload doc=%s: %v", d.ID, err)
		}
	}
}

// markQueued flags a submission for conversion before it is persisted, so a
// fast worker cannot be overwritten by the write that precedes Enqueue.
func (s *Service) markQueued(d *document.Document) {
	if s.convert != nil && !d.IsDraft {
		d.ConversionStatus = conversion.StatusQueued
	}
}

func (s *Service) enqueue(ctx context.Context, d *document.Document) {
	if s.convert == nil {
		return
	}
	_, err := s.convert.Enqueue(ctx, conversion.Request{
		DocID:       d.ID,
		FileKey:     d.FileKey,
		ContentType: d.ContentType,
		FileName:    d.OriginalFileName,
	})
	if err == nil {
		return
	}
	logger.Warnf("queue conversion doc=%s: %v", d.ID, err)
	// rejected jobs are reported through MarkConverted; a stopped pool reports nothing
	if errors.Is(err, conversion.ErrPoolClosed) {
		d.ConversionStatus = conversion.StatusFailed
		c := document.Conversion{FileKey: d.FileKey, Status: conversion.StatusFailed}
		if uerr := s.repo.SetConversion(ctx, d.ID, c); uerr != nil && !errors.Is(uerr, repository.ErrNotFound) {
			logger.Warnf("record conversion status doc=%s: %v", d.ID, uerr)
		}
	}
}

func (s *Service) load(ctx context.Context, id string) (*document.Document, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// Get returns a document visible to actor: owners see their own, admins see submissions.
func (s *Service) Get(ctx context.Context, actor models.Actor, id string) (*document.Document, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() && !d.IsDraft {
		return d, nil
	}
	// other people's drafts do not exist for the caller
	if err := checkOwner(d, actor); err != nil {
		return nil, err
	}
	return d, nil
}

// mutate loads id, applies fn and writes the result. A write that lost the
// race against another writer is retried on a fresh copy.
func (s *Service) mutate(ctx context.Context, id string, fn func(d *document.Document) error) (*document.Document, error) {
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		d, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(d); err != nil {
			return nil, err
		}
		err = s.repo.Update(ctx, d)
		switch {
		case err == nil:
			return d, nil
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case !errors.Is(err, repository.ErrConflict):
			return nil, err
		}
		logger.Debugf("document %s changed during write, attempt %d/%d", id, attempt, writeAttempts)
	}
	return nil, fmt.Errorf("%w: document changed concurrently, try again", ErrInvalidState)
}

func checkOwner(d *document.Document, actor models.Actor) error {
	if d.UserID == actor.ID {
		return nil
	}
	if d.IsDraft {
		return ErrNotFound
	}
	return ErrForbidden
}

// MyDocuments lists the actor's submissions, drafts excluded.
func (s *Service) MyDocuments(ctx context.Context, actor models.Actor, status document.Status) ([]*document.Document, error) {
	return s.repo.List(ctx, document.Filter{UserID: actor.ID, Status: status, Drafts: document.Bool(false)})
}

// MyDrafts lists the actor's unsubmitted drafts.
func (s *Service) MyDrafts(ctx context.Context, actor models.Actor) ([]*document.Document, error) {
	return s.repo.List(ctx, document.Filter{UserID: actor.ID, Drafts: document.Bool(true)})
}

// Pending lists submissions awaiting review.
func (s *Service) Pending(ctx context.Context, actor models.Actor) ([]*document.Document, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx, document.Filter{Status: document.StatusPending, Drafts: document.Bool(false)})
}

// ParseStatusFilter maps the "all" or empty filter to no filter.
func ParseStatusFilter(s string) (document.Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return "", nil
	}
	st := document.Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
	}
	return st, nil
}

// Search matches title, submitter name and file name. Admins search every
// submission, students only their own.
func (s *Service) Search(ctx context.Context, actor models.Actor, query string, status document.Status) ([]*document.Document, error) {
	f := document.Filter{Query: query, Status: status, Drafts: document.Bool(false)}
	if !actor.IsAdmin() {
		f.UserID = actor.ID
	}
	return s.repo.List(ctx, f)
}

type UpdateInput struct {
	Title    *string
	Type     *document.Type
	CourseID *string
	File     *FileInput
}

// Update edits a document of the actor while it is still pending.
func (s *Service) Update(ctx context.Context, actor models.Actor, id string, in UpdateInput) (*document.Document, error) {
	if in.Title == nil && in.Type == nil && in.CourseID == nil && in.File == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if in.Title != nil && !validTitle(*in.Title) {
		return nil, fmt.Errorf("%w: title must be at least %d characters", ErrInvalidInput, MinTitleLength)
	}
	if in.Type != nil && !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, *in.Type)
	}
	var f *sniffedFile
	if in.File != nil {
		var err error
		if f, err = s.readFile(*in.File); err != nil {
			return nil, err
		}
	}

	var staleKeys []string
	var uploaded string
	d, err := s.mutate(ctx, id, func(d *document.Document) error {
		if err := checkOwner(d, actor); err != nil {
			return err
		}
		if !d.Editable() {
			return fmt.Errorf("%w: %s documents cannot be edited", ErrInvalidState, d.Status)
		}
		if in.Title != nil {
			d.Title = strings.TrimSpace(*in.Title)
		}
		if in.Type != nil {
			d.Type = *in.Type
		}
		if in.CourseID != nil && *in.CourseID != d.CourseID {
			if err := s.checkEnrollment(ctx, actor, *in.CourseID); err != nil {
				return err
			}
			d.CourseID = *in.CourseID
		}
		staleKeys = staleKeys[:0]
		if f == nil {
			return nil
		}
		newKey := fileKey(d.UserID, d.ID, f.name)
		if uploaded != newKey {
			if err := s.blobs.UploadFile(ctx, newKey, bytes.NewReader(f.data), int64(len(f.data)), f.contentType); err != nil {
				return fmt.Errorf("store file: %w", err)
			}
			uploaded = newKey
		}
		if d.FileKey != newKey {
			staleKeys = append(staleKeys, d.FileKey)
		}
		if d.PreviewKey != "" && d.PreviewKey != d.FileKey && d.PreviewKey != newKey {
			staleKeys = append(staleKeys, d.PreviewKey)
		}
		d.FileKey = newKey
		d.OriginalFileName = f.name
		d.ContentType = f.contentType
		d.Size = int64(len(f.data))
		d.PreviewKey = ""
		d.PreviewType = ""
		d.ConversionStatus = ""
		s.markQueued(d)
		return nil
	})
	if err != nil {
		// the new file is orphaned unless the document already pointed at that key
		if uploaded != "" && uploaded != s.storedFileKey(ctx, id) {
			s.removeBlob(ctx, uploaded)
		}
		return nil, err
	}
	for _, k := range staleKeys {
		s.removeBlob(ctx, k)
	}
	if f != nil && !d.IsDraft {
		s.enqueue(ctx, d)
	}
	logger.Infof("document updated id=%s by=%s", d.ID, actor.ID)
	return d, nil
}

func (s *Service) storedFileKey(ctx context.Context, id string) string {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return ""
	}
	return d.FileKey
}

// SubmitDraft turns one of the actor's drafts into a pending submission.
func (s *Service) SubmitDraft(ctx context.Context, actor models.Actor, id string) (*document.Document, error) {
	d, err := s.mutate(ctx, id, func(d *document.Document) error {
		if err := checkOwner(d, actor); err != nil {
			return err
		}
		if !d.IsDraft {
			return fmt.Errorf("%w: document is not a draft", ErrInvalidState)
		}
		d.IsDraft = false
		d.Status = document.StatusPending
		d.CreatedAt = s.now()
		s.markQueued(d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("draft submitted id=%s user=%s", d.ID, d.UserID)
	s.submitted(ctx, d)
	return d, nil
}

// Delete removes a document and its blobs. Owners may delete drafts and
// unreviewed submissions; admins may delete any submission.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id string) error {
	d, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case d.UserID == actor.ID:
		if !d.Editable() {
			return fmt.Errorf("%w: reviewed documents cannot be deleted", ErrInvalidState)
		}
	case actor.IsAdmin() && !d.IsDraft:
	case d.IsDraft:
		return ErrNotFound
	default:
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.removeBlob(ctx, d.FileKey)
	if d.PreviewKey != "" && d.PreviewKey != d.FileKey {
		s.removeBlob(ctx, d.PreviewKey)
	}
	if s.convert != nil {
		if err := s.convert.Forget(ctx, id); err != nil {
			logger.Warnf("forget conversions doc=%s: %v", id, err)
		}
	}
	logger.Infof("document deleted id=%s by=%s", id, actor.ID)
	return nil
}

func (s *Service) removeBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.RemoveFile(ctx, key); err != nil {
		logger.Warnf("remove blob %s: %v", key, err)
	}
}

// Review records an admin decision on a pending submission and notifies the owner.
func (s *Service) Review(ctx context.Context, actor models.Actor, id string, decision document.Status, comments string) (*document.Document, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if decision != document.StatusApproved && decision != document.StatusRejected {
		return nil, fmt.Errorf("%w: decision must be approved or rejected", ErrInvalidInput)
	}
	d, err := s.mutate(ctx, id, func(d *document.Document) error {
		if d.IsDraft {
			return ErrNotFound
		}
		if !d.Reviewable() {
			return fmt.Errorf("%w: document already %s", ErrInvalidState, d.Status)
		}
		now := s.now()
		d.Status = decision
		d.Comments = strings.TrimSpace(comments)
		d.ReviewedBy = actor.ID
		d.ReviewedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.DocumentsReviewed.WithLabelValues(string(decision)).Inc()
	logger.Infof("document %s id=%s by=%s", decision, d.ID, actor.ID)
	if s.notify != nil {
		if err := s.notify.DocumentStatusChanged(ctx, d); err != nil {
			logger.Warnf("notify review doc=%s: %v", d.ID, err)
		}
	}
	return d, nil
}

func (s *Service) Approve(ctx context.Context, actor models.Actor, id, comments string) (*document.Document, error) {
	return s.Review(ctx, actor, id, document.StatusApproved, comments)
}

func (s *Service) Reject(ctx context.Context, actor models.Actor, id, comments string) (*document.Document, error) {
	return s.Review(ctx, actor, id, document.StatusRejected, comments)
}

// Download is either a presigned URL or an open stream of the blob.
type Download struct {
	URL         string
	Body        io.ReadCloser
	FileName    string
	ContentType string
	Size        int64
}

// Open returns the original file, or its preview when preview is set.
func (s *Service) Open(ctx context.Context, actor models.Actor, id string, preview bool) (*Download, error) {
	d, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	key, name, ct := d.FileKey, d.OriginalFileName, d.ContentType
	if preview {
		if !d.HasPreview() {
			return nil, fmt.Errorf("%w: preview not ready", ErrInvalidState)
		}
		key, ct = d.PreviewKey, d.PreviewContentType()
		if key != d.FileKey {
			name = path.Base(key)
		}
	}
	if s.opts.PresignTTL > 0 {
		u, err := s.blobs.GetPresignedURL(ctx, key, s.opts.PresignTTL)
		if err == nil {
			return &Download{URL: u, FileName: name, ContentType: ct}, nil
		}
		if !errors.Is(err, storage.ErrPresignUnsupported) {
			return nil, fmt.Errorf("presign %s: %w", key, err)
		}
	}
	body, err := s.blobs.DownloadFile(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	size := int64(-1)
	if key == d.FileKey {
		size = d.Size
	}
	return &Download{Body: body, FileName: name, ContentType: ct, Size: size}, nil
}

// StudentStats counts the actor's submissions by status plus their drafts.
func (s *Service) StudentStats(ctx context.Context, actor models.Actor) (*document.StudentStats, error) {
	docs, err := s.repo.List(ctx, document.Filter{UserID: actor.ID})
	if err != nil {
		return nil, err
	}
	st := &document.StudentStats{}
	for _, d := range docs {
		if d.IsDraft {
			st.Drafts++
			continue
		}
		st.Total++
		countStatus(d.Status, &st.Pending, &st.Approved, &st.Rejected)
	}
	return st, nil
}

// AdminStats counts every submission and returns the most recent ones.
func (s *Service) AdminStats(ctx context.Context, actor models.Actor) (*document.AdminStats, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	docs, err := s.repo.List(ctx, document.Filter{Drafts: document.Bool(false)})
	if err != nil {
		return nil, err
	}
	st := &document.AdminStats{Total: len(docs)}
	for _, d := range docs {
		countStatus(d.Status, &st.Pending, &st.Approved, &st.Rejected)
	}
	if len(docs) > RecentLimit {
		docs = docs[:RecentLimit]
	}
	st.Recent = docs
	return st, nil
}

func countStatus(s document.Status, pending, approved, rejected *int) {
	switch s {
	case document.StatusPending:
		*pending++
	case document.StatusApproved:
		*approved++
	case document.StatusRejected:
		*rejected++
	}
}

// MarkConverted records the outcome of a conversion job on its document.
// Only the conversion fields are written, so concurrent reviews and edits
// survive. Jobs for a replaced file or a deleted document are ignored.
func (s *Service) MarkConverted(ctx context.Context, job *conversion.Job) error {
	c := document.Conversion{FileKey: job.FileKey, Status: job.Status}
	if job.Status == conversion.StatusReady {
		c.PreviewKey, c.PreviewType = job.PreviewKey, job.PreviewType
	}
	err := s.repo.SetConversion(ctx, job.DocID, c)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Debugf("conversion job=%s for doc=%s is stale", job.JobID, job.DocID)
		return nil
	}
	return err
}
