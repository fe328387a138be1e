// Package seed loads the demo accounts, courses, documents and feedback into
// an empty portal.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/abodd44/hashdocker-document-hub/internal/conversion"
	"github.com/abodd44/hashdocker-document-hub/internal/courses"
	"github.com/abodd44/hashdocker-document-hub/internal/document"
	"github.com/abodd44/hashdocker-document-hub/internal/document/repository"
	"github.com/abodd44/hashdocker-document-hub/internal/feedback"
	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/internal/storage"
	"github.com/abodd44/hashdocker-document-hub/internal/users"
	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
)

const (
	StudentID       = "1234567"
	StudentPassword = "student123"
	AdminID         = "7654321"
	AdminPassword   = "admin123"

	docxType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

type Deps struct {
	Users     *users.Service
	Courses   *courses.Service
	Documents repository.Repository
	Feedback  feedback.Repository
	Blobs     storage.Store
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Run seeds the demo data unless accounts already exist. It reports whether it seeded.
func Run(ctx context.Context, d Deps) (bool, error) {
	n, err := d.Users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		logger.Debugf("seed skipped, %d users present", n)
		return false, nil
	}

	for _, c := range courses.Catalogue() {
		if err := d.Courses.Save(ctx, c); err != nil {
			return false, fmt.Errorf("seed course %s: %w", c.ID, err)
		}
	}

	accounts := []users.NewUser{
		{
			ID:             StudentID,
			Name:           "Ahmed Al-Jordani",
			Role:           models.RoleStudent,
			Password:       StudentPassword,
			ProfilePicture: "/profile-student.jpg",
			Courses:        []string{"CS101", "MATH201", "ENG105"},
		},
		{
			ID:             AdminID,
			Name:           "Dr. Mohammad Hashemi",
			Role:           models.RoleAdmin,
			Password:       AdminPassword,
			ProfilePicture: "/profile-admin.jpg",
		},
	}
	for _, a := range accounts {
		if _, err := d.Users.Register(ctx, a); err != nil {
			return false, fmt.Errorf("seed user %s: %w", a.ID, err)
		}
	}

	reviewedAt := at("2023-03-16T08:45:00Z")
	docs := []*document.Document{
		{
			ID:               "1",
			Title:            "Database Assignment",
			Type:             document.TypeHomework,
			OriginalFileName: "assignment.docx",
			Status:           document.StatusApproved,
			CourseID:         "CS101",
			ReviewedBy:       AdminID,
			ReviewedAt:       &reviewedAt,
			CreatedAt:        at("2023-03-15T10:30:00Z"),
			UpdatedAt:        reviewedAt,
		},
		{
			ID:               "2",
			Title:            "Absence Request - Midterm Week",
			Type:             document.TypeAbsence,
			OriginalFileName: "medical_note.docx",
			Status:           document.StatusPending,
			CourseID:         "MATH201",
			CreatedAt:        at("2023-04-10T14:20:00Z"),
			UpdatedAt:        at("2023-04-10T14:20:00Z"),
		},
		{
			ID:               "draft-1",
			Title:            "Grade Review - Final Exam",
			Type:             document.TypeGradeReview,
			OriginalFileName: "grade_review_draft.docx",
			Status:           document.StatusPending,
			CourseID:         "ENG105",
			IsDraft:          true,
			CreatedAt:        at("2023-05-01T09:15:00Z"),
			UpdatedAt:        at("2023-05-01T09:15:00Z"),
		},
	}
	conv := &conversion.BlobConverter{Blobs: d.Blobs}
	for _, doc := range docs {
		if err := seedDocument(ctx, d, conv, doc); err != nil {
			return false, err
		}
	}

	thread := []*feedback.Feedback{
		{
			ID:         "1",
			SenderID:   StudentID,
			SenderName: "Ahmed Al-Jordani",
			ReceiverID: AdminID,
			Subject:    "Question about assignment submission",
			Message:    "I am having trouble submitting my assignment for the Database course. The system keeps giving me an error message.",
			CreatedAt:  at("2023-04-15T11:30:00Z"),
			Read:       true,
			Replied:    true,
		},
		{
			ID:         "2",
			SenderID:   AdminID,
			SenderName: "Dr. Mohammad Hashemi",
			ReceiverID: StudentID,
			Subject:    "RE: Question about assignment submission",
			Message:    "Please try clearing your browser cache and using a different browser. Let me know if the issue persists.",
			ParentID:   "1",
			CreatedAt:  at("2023-04-15T14:45:00Z"),
		},
	}
	for _, f := range thread {
		if err := d.Feedback.Create(ctx, f); err != nil {
			return false, fmt.Errorf("seed feedback %s: %w", f.ID, err)
		}
	}

	logger.Infof("seeded demo data: %d users, %d courses, %d documents, %d feedback", len(accounts), len(courses.Catalogue()), len(docs), len(thread))
	return true, nil
}

// seedDocument stores a placeholder blob for doc and, for submissions, its preview.
func seedDocument(ctx context.Context, d Deps, conv conversion.Converter, doc *document.Document) error {
	doc.UserID = StudentID
	doc.UserName = "Ahmed Al-Jordani"
	doc.ContentType = docxType
	doc.FileKey = "documents/" + StudentID + "/" + doc.ID + "/" + doc.OriginalFileName
	body := []byte("Placeholder for " + doc.OriginalFileName + "\n")
	doc.Size = int64(len(body))

	if err := d.Blobs.UploadFile(ctx, doc.FileKey, bytes.NewReader(body), doc.Size, doc.ContentType); err != nil {
		return fmt.Errorf("seed blob %s: %w", doc.FileKey, err)
	}
	if !doc.IsDraft {
		p, err := conv.Convert(ctx, conversion.Request{DocID: doc.ID, FileKey: doc.FileKey, ContentType: doc.ContentType, FileName: doc.OriginalFileName})
		if err != nil {
			return fmt.Errorf("seed preview %s: %w", doc.ID, err)
		}
		doc.PreviewKey, doc.PreviewType = p.Key, p.ContentType
		doc.ConversionStatus = conversion.StatusReady
	}
	if err := d.Documents.Create(ctx, doc); err != nil {
		return fmt.Errorf("seed document %s: %w", doc.ID, err)
	}
	return nil
}
