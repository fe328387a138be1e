package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abodd44/hashdocker-document-hub/internal/document"
	"github.com/abodd44/hashdocker-document-hub/internal/feedback"
	"github.com/abodd44/hashdocker-document-hub/internal/i18n"
	"github.com/abodd44/hashdocker-document-hub/internal/mail"
	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
	"github.com/abodd44/hashdocker-document-hub/pkg/metrics"
)

var ErrForbidden = errors.New("forbidden")

// Links of the portal pages a notification points to.
const (
	LinkAdminDocuments = "/admin/documents"
	LinkMyDocuments    = "/my-documents"
	LinkFeedback       = "/feedback"
)

const mailTimeout = 10 * time.Second

// Directory resolves recipients and their language.
type Directory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListAdmins(ctx context.Context) ([]*models.User, error)
}

type Service struct {
	repo   Repository
	users  Directory
	broker Broker
	mailer mail.Mailer
	now    func() time.Time
}

// NewService wires notifications. broker and mailer may be nil.
func NewService(repo Repository, users Directory, broker Broker, mailer mail.Mailer) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		broker: broker,
		mailer: mailer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Add stores a notification for n.UserID and delivers it.
func (s *Service) Add(ctx context.Context, n *Notification) (*Notification, error) {
	u, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		return nil, fmt.Errorf("notification recipient %s: %w", n.UserID, err)
	}
	if err := s.deliver(ctx, "custom", u, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) deliver(ctx context.Context, kind string, u *models.User, n *Notification) error {
	n.ID = uuid.NewString()
	n.UserID = u.ID
	n.Read = false
	n.CreatedAt = s.now()
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	metrics.NotificationsSent.WithLabelValues(kind).Inc()
	logger.Debugf("notification %s kind=%s user=%s", n.ID, kind, u.ID)

	if s.broker != nil {
		if err := s.broker.Publish(ctx, n); err != nil {
			logger.Warnf("publish notification %s: %v", n.ID, err)
		}
	}
	if s.mailer != nil && u.Email != "" {
		msg := mail.Message{ToName: u.Name, ToEmail: u.Email, Subject: n.Title, Text: n.Message}
		go func() {
			mctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
			defer cancel()
			if err := s.mailer.Send(mctx, msg); err != nil {
				logger.Warnf("mail notification %s to %s: %v", n.ID, u.Email, err)
			}
		}()
	}
	return nil
}

func language(u *models.User) string {
	return i18n.Normalize(u.Preferences.Language)
}

// DocumentUploaded tells every administrator about a new submission.
func (s *Service) DocumentUploaded(ctx context.Context, d *document.Document) error {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}
	var errs []error
	for _, a := range admins {
		lang := language(a)
		n := &Notification{
			Title:      i18n.T(lang, "notifUploadedTitle"),
			Message:    i18n.Tf(lang, "notifUploadedMessage", d.UserName, d.Title),
			Link:       LinkAdminDocuments,
			DocumentID: d.ID,
		}
		if err := s.deliver(ctx, "document_uploaded", a, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DocumentStatusChanged tells the owner about a review decision.
func (s *Service) DocumentStatusChanged(ctx context.Context, d *document.Document) error {
	owner, err := s.users.GetByID(ctx, d.UserID)
	if err != nil {
		return fmt.Errorf("document owner %s: %w", d.UserID, err)
	}
	lang := language(owner)
	title := i18n.T(lang, "notifRejectedTitle")
	if d.Status == document.StatusApproved {
		title = i18n.T(lang, "notifApprovedTitle")
	}
	msg := i18n.Tf(lang, "notifStatusMessage", d.Title, strings.ToLower(i18n.T(lang, string(d.Status))))
	if d.Comments != "" {
		msg += i18n.Tf(lang, "notifCommentsSuffix", d.Comments)
	}
	return s.deliver(ctx, "document_"+string(d.Status), owner, &Notification{
		Title:      title,
		Message:    msg,
		Link:       LinkMyDocuments,
		DocumentID: d.ID,
	})
}

// FeedbackReceived tells the receiver about new feedback.
func (s *Service) FeedbackReceived(ctx context.Context, f *feedback.Feedback) error {
	u, err := s.users.GetByID(ctx, f.ReceiverID)
	if err != nil {
		return fmt.Errorf("feedback receiver %s: %w", f.ReceiverID, err)
	}
	lang := language(u)
	return s.deliver(ctx, "feedback", u, &Notification{
		Title:      i18n.T(lang, "notifFeedbackTitle"),
		Message:    i18n.Tf(lang, "notifFeedbackMessage", f.SenderName, f.Subject),
		Link:       LinkFeedback,
		FeedbackID: f.ID,
	})
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Notification, error) {
	return s.repo.List(ctx, userID)
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return ErrForbidden
	}
	if n.Read {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// Subscribe streams notifications created for userID from now on.
func (s *Service) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	if s.broker == nil {
		return nil, errors.New("notification streaming is not configured")
	}
	return s.broker.Subscribe(ctx, userID)
}
