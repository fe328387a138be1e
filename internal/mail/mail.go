// Package mail delivers notification emails through SendGrid, or writes them
// to the log when no API key is configured.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/abodd44/hashdocker-document-hub/internal/config"
	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
)

var ErrNoRecipient = errors.New("mail has no recipient")

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

// Message is a plain-text mail to a single recipient.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns a SendGrid mailer when a key is configured and a console mailer otherwise.
func New(cfg config.MailConfig) Mailer {
	if cfg.SendGridKey == "" {
		return NewConsole(cfg.FromName, cfg.FromEmail)
	}
	return NewSendGrid(cfg.SendGridKey, cfg.FromName, cfg.FromEmail, "")
}

// SendGridMailer posts mail to the SendGrid v3 API.
type SendGridMailer struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

var _ Mailer = (*SendGridMailer)(nil)

// NewSendGrid creates a mailer; an empty host targets api.sendgrid.com.
func NewSendGrid(key, appName, fromEmail, host string) *SendGridMailer {
	if host == "" {
		host = defaultHost
	}
	return &SendGridMailer{
		key:        key,
		host:       host,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (m *SendGridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	return v3
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	req := sendgrid.GetRequest(m.key, endpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	logger.Debugf("mail sent to=%s subject=%q", msg.ToEmail, msg.Subject)
	return nil
}

// ConsoleMailer logs mail instead of sending it and keeps what it logged.
type ConsoleMailer struct {
	from       string
	subjPrefix string

	mu   sync.Mutex
	sent []Message
}

var _ Mailer = (*ConsoleMailer)(nil)

func NewConsole(appName, fromEmail string) *ConsoleMailer {
	return &ConsoleMailer{from: fromEmail, subjPrefix: "[" + appName + "] "}
}

func (c *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return ErrNoRecipient
	}
	logger.Infof("mail from=%s to=%s subject=%q\n%s", c.from, msg.ToEmail, c.subjPrefix+msg.Subject, msg.Text)
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
	return nil
}

// Sent returns a copy of the logged messages.
func (c *ConsoleMailer) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}
