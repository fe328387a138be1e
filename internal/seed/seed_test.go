package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abodd44/hashdocker-document-hub/internal/courses"
	"github.com/abodd44/hashdocker-document-hub/internal/document"
	"github.com/abodd44/hashdocker-document-hub/internal/document/repository"
	"github.com/abodd44/hashdocker-document-hub/internal/feedback"
	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/internal/storage"
	"github.com/abodd44/hashdocker-document-hub/internal/users"
)

func TestRunSeedsEmptyStoresOnce(t *testing.T) {
	ctx := context.Background()
	userSvc := users.NewService(users.NewMemoryUserRepository())
	deps := Deps{
		Users:     userSvc,
		Courses:   courses.NewService(courses.NewMemoryRepository(), userSvc),
		Documents: repository.NewMemoryRepo(),
		Feedback:  feedback.NewMemoryRepository(),
		Blobs:     storage.NewMemoryStorage(),
	}

	seeded, err := Run(ctx, deps)
	require.NoError(t, err)
	require.True(t, seeded)

	student, err := userSvc.Authenticate(ctx, StudentID, StudentPassword, models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "Ahmed Al-Jordani", student.Name)
	_, err = userSvc.Authenticate(ctx, AdminID, AdminPassword, models.RoleAdmin)
	require.NoError(t, err)
	_, err = userSvc.Authenticate(ctx, StudentID, StudentPassword, models.RoleAdmin)
	require.ErrorIs(t, err, users.ErrInvalidCredentials)

	mine, err := deps.Courses.StudentCourses(ctx, StudentID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	submitted, err := deps.Documents.List(ctx, document.Filter{UserID: StudentID, Drafts: document.Bool(false)})
	require.NoError(t, err)
	require.Len(t, submitted, 2)
	assert.Equal(t, "2", submitted[0].ID)
	assert.Equal(t, document.StatusApproved, submitted[1].Status)
	assert.Equal(t, "previews/1/assignment.docx", submitted[1].PreviewKey)
	assert.Equal(t, docxType, submitted[1].PreviewContentType())

	drafts, err := deps.Documents.List(ctx, document.Filter{UserID: StudentID, Drafts: document.Bool(true)})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Empty(t, drafts[0].PreviewKey)

	blobs := deps.Blobs.(*storage.MemoryStorage)
	// three originals and two previews
	assert.Equal(t, 5, blobs.Len())

	unread, err := deps.Feedback.ListUnread(ctx, StudentID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "RE: Question about assignment submission", unread[0].Subject)

	seeded, err = Run(ctx, deps)
	require.NoError(t, err)
	assert.False(t, seeded)
	all, _ := deps.Documents.List(ctx, document.Filter{})
	assert.Len(t, all, 3)
}
