package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
	"github.com/abodd44/hashdocker-document-hub/pkg/metrics"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid feedback")
)

const (
	MinSubjectLength = 3
	MinMessageLength = 10
	replyPrefix      = "RE: "
)

// Directory resolves the users feedback is addressed to.
type Directory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListAdmins(ctx context.Context) ([]*models.User, error)
}

// Notifier is told when a user receives feedback.
type Notifier interface {
	FeedbackReceived(ctx context.Context, f *Feedback) error
}

type Service struct {
	repo   Repository
	users  Directory
	notify Notifier
	now    func() time.Time
}

// NewService wires the feedback service; notify may be nil.
func NewService(repo Repository, users Directory, notify Notifier) *Service {
	return &Service{repo: repo, users: users, notify: notify, now: func() time.Time { return time.Now().UTC() }}
}

type SendInput struct {
	ReceiverID string
	Subject    string
	Message    string
}

func validText(s string, min int) bool {
	return len([]rune(strings.TrimSpace(s))) >= min
}

// Send delivers feedback to a receiver. A student without a receiver writes to
// every administrator, one message each; administrators must name the receiver.
func (s *Service) Send(ctx context.Context, actor models.Actor, in SendInput) ([]*Feedback, error) {
	if !validText(in.Subject, MinSubjectLength) {
		return nil, fmt.Errorf("%w: subject must be at least %d characters", ErrInvalidInput, MinSubjectLength)
	}
	if !validText(in.Message, MinMessageLength) {
		return nil, fmt.Errorf("%w: message must be at least %d characters", ErrInvalidInput, MinMessageLength)
	}
	receivers, err := s.receivers(ctx, actor, strings.TrimSpace(in.ReceiverID))
	if err != nil {
		return nil, err
	}
	out := make([]*Feedback, 0, len(receivers))
	for _, r := range receivers {
		f := &Feedback{
			ID:         uuid.NewString(),
			SenderID:   actor.ID,
			SenderName: actor.Name,
			ReceiverID: r.ID,
			Subject:    strings.TrimSpace(in.Subject),
			Message:    strings.TrimSpace(in.Message),
			CreatedAt:  s.now(),
		}
		if err := s.deliver(ctx, f); err != nil {
			return out, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Service) receivers(ctx context.Context, actor models.Actor, receiverID string) ([]*models.User, error) {
	if receiverID == "" {
		if actor.IsAdmin() {
			return nil, fmt.Errorf("%w: receiver is required", ErrInvalidInput)
		}
		admins, err := s.users.ListAdmins(ctx)
		if err != nil {
			return nil, fmt.Errorf("list admins: %w", err)
		}
		if len(admins) == 0 {
			return nil, fmt.Errorf("%w: no administrator to receive feedback", ErrInvalidInput)
		}
		return admins, nil
	}
	if receiverID == actor.ID {
		return nil, fmt.Errorf("%w: cannot send feedback to yourself", ErrInvalidInput)
	}
	u, err := s.users.GetByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown receiver %s", ErrInvalidInput, receiverID)
	}
	if !actor.IsAdmin() && !u.IsAdmin() {
		return nil, fmt.Errorf("%w: students write to administrators only", ErrForbidden)
	}
	return []*models.User{u}, nil
}

func (s *Service) deliver(ctx context.Context, f *Feedback) error {
	if err := s.repo.Create(ctx, f); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	metrics.FeedbackSent.Inc()
	logger.Infof("feedback sent id=%s from=%s to=%s", f.ID, f.SenderID, f.ReceiverID)
	if s.notify != nil {
		if err := s.notify.FeedbackReceived(ctx, f); err != nil {
			logger.Warnf("notify feedback id=%s: %v", f.ID, err)
		}
	}
	return nil
}

func (s *Service) received(ctx context.Context, actor models.Actor, id string) (*Feedback, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.ReceiverID != actor.ID {
		if f.SenderID == actor.ID {
			return nil, ErrForbidden
		}
		return nil, ErrNotFound
	}
	return f, nil
}

// MarkRead marks feedback received by the actor as read.
func (s *Service) MarkRead(ctx context.Context, actor models.Actor, id string) (*Feedback, error) {
	f, err := s.received(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if f.Read {
		return f, nil
	}
	f.Read = true
	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Reply answers feedback received by the actor and marks it read and replied.
func (s *Service) Reply(ctx context.Context, actor models.Actor, id, message string) (*Feedback, error) {
	if !validText(message, MinMessageLength) {
		return nil, fmt.Errorf("%w: message must be at least %d characters", ErrInvalidInput, MinMessageLength)
	}
	orig, err := s.received(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	subject := orig.Subject
	if !strings.HasPrefix(subject, replyPrefix) {
		subject = replyPrefix + subject
	}
	reply := &Feedback{
		ID:         uuid.NewString(),
		SenderID:   actor.ID,
		SenderName: actor.Name,
		ReceiverID: orig.SenderID,
		Subject:    subject,
		Message:    strings.TrimSpace(message),
		ParentID:   orig.ID,
		CreatedAt:  s.now(),
	}
	if err := s.deliver(ctx, reply); err != nil {
		return nil, err
	}
	// the reply is stored; a failed flag update is only logged
	orig.Read = true
	orig.Replied = true
	if err := s.repo.Update(ctx, orig); err != nil {
		logger.Warnf("mark feedback id=%s replied: %v", orig.ID, err)
	}
	return reply, nil
}

// Unread returns the actor's unread received feedback.
func (s *Service) Unread(ctx context.Context, actor models.Actor) ([]*Feedback, error) {
	return s.repo.ListUnread(ctx, actor.ID)
}

// ForUser returns everything the actor sent or received.
func (s *Service) ForUser(ctx context.Context, actor models.Actor) ([]*Feedback, error) {
	return s.repo.ListForUser(ctx, actor.ID)
}

// Inbox splits ForUser into received and sent messages.
func (s *Service) Inbox(ctx context.Context, actor models.Actor) (*Inbox, error) {
	all, err := s.ForUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	in := &Inbox{Received: []*Feedback{}, Sent: []*Feedback{}}
	for _, f := range all {
		if f.ReceiverID == actor.ID {
			in.Received = append(in.Received, f)
		} else {
			in.Sent = append(in.Sent, f)
		}
	}
	return in, nil
}
