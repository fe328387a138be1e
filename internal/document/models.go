package document

import (
	"strings"
	"time"
)

// Status is the review state of a document.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Type is the kind of request a document is filed as.
type Type string

const (
	TypeHomework    Type = "homework"
	TypeAbsence     Type = "absence"
	TypeGradeReview Type = "grade_review"
	TypeOther       Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeHomework, TypeAbsence, TypeGradeReview, TypeOther:
		return true
	}
	return false
}

// Document is an uploaded file filed by a student for review.
// Drafts keep status pending but stay invisible to reviewers until submitted.
type Document struct {
	ID               string     `json:"id" bson:"_id"`
	Title            string     `json:"title" bson:"title"`
	Type             Type       `json:"type" bson:"type"`
	OriginalFileName string     `json:"originalFileName" bson:"originalFileName"`
	FileKey          string     `json:"-" bson:"fileKey"`
	ContentType      string     `json:"contentType" bson:"contentType"`
	Size             int64      `json:"size" bson:"size"`
	PreviewKey       string     `json:"-" bson:"previewKey,omitempty"`
	PreviewType      string     `json:"-" bson:"previewType,omitempty"`
	ConversionStatus string     `json:"conversionStatus,omitempty" bson:"conversionStatus,omitempty"`
	Status           Status     `json:"status" bson:"status"`
	CourseID         string     `json:"courseId,omitempty" bson:"courseId,omitempty"`
	UserID           string     `json:"userId" bson:"userId"`
	UserName         string     `json:"userName" bson:"userName"`
	IsDraft          bool       `json:"isDraft" bson:"isDraft"`
	Comments         string     `json:"comments,omitempty" bson:"comments,omitempty"`
	ReviewedBy       string     `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt" bson:"updatedAt"`
	// Version increases on every write; Update refuses stale copies.
	Version          int64      `json:"-" bson:"version"`
}

// Reviewable reports whether an admin may approve or reject the document.
func (d *Document) Reviewable() bool { return !d.IsDraft && d.Status == StatusPending }

// Editable reports whether the owner may still change the document.
func (d *Document) Editable() bool { return d.Status == StatusPending }

// HasPreview reports whether a converted preview is available.
func (d *Document) HasPreview() bool { return d.PreviewKey != "" }

// PreviewContentType is the media type of the preview blob.
func (d *Document) PreviewContentType() string {
	if d.PreviewType != "" {
		return d.PreviewType
	}
	return d.ContentType
}

// Conversion is the outcome of a preview conversion of the file stored at FileKey.
type Conversion struct {
	FileKey     string
	Status      string
	PreviewKey  string
	PreviewType string
}

// Clone returns a copy safe to hand out of a repository.
func (d *Document) Clone() *Document {
	c := *d
	if d.ReviewedAt != nil {
		t := *d.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}

// Filter selects documents in listings. Zero fields match everything.
type Filter struct {
	UserID   string
	CourseID string
	Status   Status
	// Drafts nil matches both drafts and submissions.
	Drafts *bool
	// Query matches title, user name and original file name, case-insensitively.
	Query string
	Limit int
}

// Bool returns a pointer to b, for Filter.Drafts.
func Bool(b bool) *bool { return &b }

// Match reports whether d satisfies the filter (Limit is ignored).
func (f Filter) Match(d *Document) bool {
	if f.UserID != "" && d.UserID != f.UserID {
		return false
	}
	if f.CourseID != "" && d.CourseID != f.CourseID {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Drafts != nil && d.IsDraft != *f.Drafts {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(d.Title), q) &&
			!strings.Contains(strings.ToLower(d.UserName), q) &&
			!strings.Contains(strings.ToLower(d.OriginalFileName), q) {
			return false
		}
	}
	return true
}

// StudentStats summarises a student's submissions.
type StudentStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Drafts   int `json:"drafts"`
}

// AdminStats summarises every submission for reviewers.
type AdminStats struct {
	Total    int         `json:"total"`
	Pending  int         `json:"pending"`
	Approved int         `json:"approved"`
	Rejected int         `json:"rejected"`
	Recent   []*Document `json:"recent"`
}
