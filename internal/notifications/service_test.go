package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abodd44/hashdocker-document-hub/internal/document"
	"github.com/abodd44/hashdocker-document-hub/internal/feedback"
	"github.com/abodd44/hashdocker-document-hub/internal/mail"
	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/internal/users"
)

type directory map[string]*models.User

func (d directory) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := d[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (d directory) ListAdmins(ctx context.Context) ([]*models.User, error) {
	out := []*models.User{}
	for _, id := range []string{"7654321", "7654322"} {
		if u, ok := d[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var testUsers = directory{
	"1234567": {ID: "1234567", Name: "Ahmed Al-Jordani", Email: "ahmed@example.edu", Role: models.RoleStudent, Preferences: models.Preferences{Language: "en"}},
	"7654321": {ID: "7654321", Name: "Dr. Mohammad Hashemi", Role: models.RoleAdmin, Preferences: models.Preferences{Language: "en"}},
	"7654322": {ID: "7654322", Name: "Dr. Layla Al-Razi", Role: models.RoleAdmin, Preferences: models.Preferences{Language: "ar"}},
}

func newService() (*Service, *MemoryBroker, *fakeMailer) {
	b := NewMemoryBroker()
	m := &fakeMailer{}
	return NewService(NewMemoryRepository(), testUsers, b, m), b, m
}

func TestDocumentUploadedNotifiesEveryAdmin(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	d := &document.Document{ID: "doc-1", Title: "Database Assignment", UserID: "1234567", UserName: "Ahmed Al-Jordani"}

	require.NoError(t, svc.DocumentUploaded(ctx, d))

	en, err := svc.List(ctx, "7654321")
	require.NoError(t, err)
	require.Len(t, en, 1)
	assert.Equal(t, "New Document Uploaded", en[0].Title)
	assert.Equal(t, `Ahmed Al-Jordani uploaded a new document: "Database Assignment"`, en[0].Message)
	assert.Equal(t, LinkAdminDocuments, en[0].Link)
	assert.Equal(t, "doc-1", en[0].DocumentID)

	ar, err := svc.List(ctx, "7654322")
	require.NoError(t, err)
	require.Len(t, ar, 1)
	assert.Equal(t, "تم رفع مستند جديد", ar[0].Title)

	student, _ := svc.List(ctx, "1234567")
	assert.Empty(t, student)
}

func TestDocumentStatusChangedNotifiesOwner(t *testing.T) {
	svc, _, m := newService()
	ctx := context.Background()
	d := &document.Document{ID: "doc-1", Title: "Absence Request", UserID: "1234567", Status: document.StatusRejected, Comments: "Missing signature"}

	require.NoError(t, svc.DocumentStatusChanged(ctx, d))
	list, err := svc.List(ctx, "1234567")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Document Rejected", list[0].Title)
	assert.Equal(t, `Your document "Absence Request" has been rejected with comments: Missing signature`, list[0].Message)
	assert.Equal(t, LinkMyDocuments, list[0].Link)

	// the student has an address, so the notification is mailed too
	require.Eventually(t, func() bool { return m.count() == 1 }, time.Second, 10*time.Millisecond)

	d.Status = document.StatusApproved
	d.Comments = ""
	require.NoError(t, svc.DocumentStatusChanged(ctx, d))
	list, _ = svc.List(ctx, "1234567")
	require.Len(t, list, 2)
	assert.Equal(t, `Your document "Absence Request" has been approved`, list[0].Message)
}

func TestFeedbackReceived(t *testing.T) {
	svc, _, m := newService()
	ctx := context.Background()
	f := &feedback.Feedback{ID: "fb-1", SenderName: "Ahmed Al-Jordani", ReceiverID: "7654321", Subject: "Question"}

	require.NoError(t, svc.FeedbackReceived(ctx, f))
	list, err := svc.List(ctx, "7654321")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "New Feedback", list[0].Title)
	assert.Equal(t, `Ahmed Al-Jordani sent feedback: "Question"`, list[0].Message)
	assert.Equal(t, "fb-1", list[0].FeedbackID)

	// admins in the fixture have no email
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, m.count())

	require.Error(t, svc.FeedbackReceived(ctx, &feedback.Feedback{ReceiverID: "0000000"}))
}

func TestReadState(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Add(ctx, &Notification{UserID: "1234567", Title: "t", Message: "m"})
		require.NoError(t, err)
	}
	other, err := svc.Add(ctx, &Notification{UserID: "7654321", Title: "t", Message: "m"})
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, "1234567")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	require.ErrorIs(t, svc.MarkRead(ctx, "1234567", other.ID), ErrForbidden)
	require.ErrorIs(t, svc.MarkRead(ctx, "1234567", "missing"), ErrNotFound)

	list, _ := svc.List(ctx, "1234567")
	require.NoError(t, svc.MarkRead(ctx, "1234567", list[0].ID))
	require.NoError(t, svc.MarkRead(ctx, "1234567", list[0].ID))
	count, _ = svc.UnreadCount(ctx, "1234567")
	assert.EqualValues(t, 2, count)

	changed, err := svc.MarkAllRead(ctx, "1234567")
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)
	count, _ = svc.UnreadCount(ctx, "1234567")
	assert.EqualValues(t, 0, count)

	count, _ = svc.UnreadCount(ctx, "7654321")
	assert.EqualValues(t, 1, count)

	_, err = svc.Add(ctx, &Notification{UserID: "0000000"})
	require.Error(t, err)
}

func TestCreatedNotificationsArePublished(t *testing.T) {
	svc, b, _ := newService()
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "1234567")
	require.NoError(t, err)
	defer sub.Close()
	assert.Equal(t, 1, b.Subscribers("1234567"))

	n, err := svc.Add(ctx, &Notification{UserID: "1234567", Title: "Hello", Message: "World"})
	require.NoError(t, err)

	select {
	case got := <-sub.C:
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, "Hello", got.Title)
	case <-time.After(time.Second):
		t.Fatal("notification was not published")
	}
}
