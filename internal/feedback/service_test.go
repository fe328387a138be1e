package feedback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/internal/users"
)

type recordingNotifier struct {
	mu   sync.Mutex
	seen []*Feedback
}

func (r *recordingNotifier) FeedbackReceived(ctx context.Context, f *Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, f)
	return nil
}

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

var (
	ahmed = &models.User{ID: "1234567", Name: "Ahmed Al-Jordani", Role: models.RoleStudent}
	sara  = &models.User{ID: "2345678", Name: "Sara Haddad", Role: models.RoleStudent}
	drMo  = &models.User{ID: "7654321", Name: "Dr. Mohammad Hashemi", Role: models.RoleAdmin}
	drLa  = &models.User{ID: "7654322", Name: "Dr. Layla Al-Razi", Role: models.RoleAdmin}
)

func newService() (*Service, *recordingNotifier) {
	n := &recordingNotifier{}
	dir := directory{ahmed.ID: ahmed, sara.ID: sara, drMo.ID: drMo, drLa.ID: drLa}
	svc := NewService(NewMemoryRepository(), dir, n)
	tick := time.Date(2024, 4, 15, 11, 30, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return svc, n
}

func TestStudentFeedbackFansOutToAdmins(t *testing.T) {
	svc, n := newService()
	ctx := context.Background()

	sent, err := svc.Send(ctx, ahmed.Actor(), SendInput{Subject: "Question about assignment", Message: "The upload keeps failing for me."})
	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Equal(t, drMo.ID, sent[0].ReceiverID)
	assert.Equal(t, drLa.ID, sent[1].ReceiverID)
	assert.Len(t, n.seen, 2)

	unread, err := svc.Unread(ctx, drMo.Actor())
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Ahmed Al-Jordani", unread[0].SenderName)
}

func TestSendValidation(t *testing.T) {
	svc, n := newService()
	ctx := context.Background()

	cases := []struct {
		name  string
		actor models.Actor
		in    SendInput
		want  error
	}{
		{"short subject", ahmed.Actor(), SendInput{Subject: "Hi", Message: "long enough message"}, ErrInvalidInput},
		{"short message", ahmed.Actor(), SendInput{Subject: "Subject", Message: "too short"}, ErrInvalidInput},
		{"admin without receiver", drMo.Actor(), SendInput{Subject: "Subject", Message: "long enough message"}, ErrInvalidInput},
		{"to self", drMo.Actor(), SendInput{ReceiverID: drMo.ID, Subject: "Subject", Message: "long enough message"}, ErrInvalidInput},
		{"unknown receiver", drMo.Actor(), SendInput{ReceiverID: "0000000", Subject: "Subject", Message: "long enough message"}, ErrInvalidInput},
		{"student to student", ahmed.Actor(), SendInput{ReceiverID: sara.ID, Subject: "Subject", Message: "long enough message"}, ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Send(ctx, tc.actor, tc.in)
			require.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, n.seen)
}

func TestMarkReadOnlyByReceiver(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	sent, err := svc.Send(ctx, drMo.Actor(), SendInput{ReceiverID: ahmed.ID, Subject: "Your request", Message: "Please resubmit the scan."})
	require.NoError(t, err)
	id := sent[0].ID

	_, err = svc.MarkRead(ctx, drMo.Actor(), id)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.MarkRead(ctx, sara.Actor(), id)
	require.ErrorIs(t, err, ErrNotFound)

	f, err := svc.MarkRead(ctx, ahmed.Actor(), id)
	require.NoError(t, err)
	assert.True(t, f.Read)

	unread, err := svc.Unread(ctx, ahmed.Actor())
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestReplyThread(t *testing.T) {
	svc, n := newService()
	ctx := context.Background()
	sent, err := svc.Send(ctx, ahmed.Actor(), SendInput{ReceiverID: drMo.ID, Subject: "Question about assignment submission", Message: "The system keeps giving me an error."})
	require.NoError(t, err)

	_, err = svc.Reply(ctx, ahmed.Actor(), sent[0].ID, "Answering my own question")
	require.ErrorIs(t, err, ErrForbidden)

	reply, err := svc.Reply(ctx, drMo.Actor(), sent[0].ID, "Please try clearing your browser cache.")
	require.NoError(t, err)
	assert.Equal(t, "RE: Question about assignment submission", reply.Subject)
	assert.Equal(t, ahmed.ID, reply.ReceiverID)
	assert.Equal(t, sent[0].ID, reply.ParentID)
	require.Len(t, n.seen, 2)
	assert.Equal(t, ahmed.ID, n.seen[1].ReceiverID)

	orig, err := svc.repo.Get(ctx, sent[0].ID)
	require.NoError(t, err)
	assert.True(t, orig.Replied)
	assert.True(t, orig.Read)

	again, err := svc.Reply(ctx, ahmed.Actor(), reply.ID, "Thanks, that fixed it for me.")
	require.NoError(t, err)
	assert.Equal(t, "RE: Question about assignment submission", again.Subject)

	inbox, err := svc.Inbox(ctx, ahmed.Actor())
	require.NoError(t, err)
	require.Len(t, inbox.Received, 1)
	require.Len(t, inbox.Sent, 2)
	assert.Equal(t, again.ID, inbox.Sent[0].ID)
}

// flakyRepo fails Create while failCreate is set.
type flakyRepo struct {
	*MemoryRepository
	failCreate bool
}

func (r *flakyRepo) Create(ctx context.Context, f *Feedback) error {
	if r.failCreate {
		return errors.New("write concern timeout")
	}
	return r.MemoryRepository.Create(ctx, f)
}

func TestFailedReplyLeavesOriginalUnreplied(t *testing.T) {
	repo := &flakyRepo{MemoryRepository: NewMemoryRepository()}
	dir := directory{ahmed.ID: ahmed, drMo.ID: drMo}
	svc := NewService(repo, dir, &recordingNotifier{})
	ctx := context.Background()
	sent, err := svc.Send(ctx, ahmed.Actor(), SendInput{ReceiverID: drMo.ID, Subject: "Deadline extension", Message: "Could I get two more days?"})
	require.NoError(t, err)

	repo.failCreate = true
	_, err = svc.Reply(ctx, drMo.Actor(), sent[0].ID, "Yes, until Friday.")
	require.Error(t, err)

	orig, err := repo.Get(ctx, sent[0].ID)
	require.NoError(t, err)
	assert.False(t, orig.Replied)
	assert.False(t, orig.Read)

	repo.failCreate = false
	_, err = svc.Reply(ctx, drMo.Actor(), sent[0].ID, "Yes, until Friday.")
	require.NoError(t, err)
	orig, err = repo.Get(ctx, sent[0].ID)
	require.NoError(t, err)
	assert.True(t, orig.Replied)
}
