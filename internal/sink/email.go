package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/amishk599/sitewatch/internal/model"
	"github.com/amishk599/sitewatch/internal/render"
)

var _ model.AlertSink = (*EmailSink)(nil)

// ErrMissingCredentials is returned when SMTP credentials are not configured
// and the sink is not in dry-run mode.
var ErrMissingCredentials = errors.New("missing email credentials: set SMTP username and password")

// EmailConfig holds SMTP settings for EmailSink.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	DryRun   bool
}

// EmailSink delivers a text and HTML digest over SMTP.
type EmailSink struct {
	cfg    EmailConfig
	logger *slog.Logger
	send   func(ctx context.Context, msg *mail.Msg) error
}

// NewEmailSink returns a sink that sends via the configured SMTP server.
func NewEmailSink(cfg EmailConfig, logger *slog.Logger) *EmailSink {
	s := &EmailSink{cfg: cfg, logger: logger}
	s.send = s.dialAndSend
	return s
}

func (s *EmailSink) Name() string { return "email" }

// Send renders changes and mails them to the subscriber. Empty lists are
// ignored. In dry-run mode the message is logged instead of sent.
func (s *EmailSink) Send(ctx context.Context, changes []model.ScoredChange, sub model.AlertSubscription) error {
	if len(changes) == 0 {
		return nil
	}

	subject := render.Subject(changes)
	if s.cfg.DryRun {
		s.logger.Info("email dry run", "to", sub.Email, "subject", subject, "changes", len(changes))
		return nil
	}
	if s.cfg.Username == "" || s.cfg.Password == "" {
		return ErrMissingCredentials
	}

	msg, err := s.buildMessage(subject, changes, sub)
	if err != nil {
		return err
	}

	if err := s.send(ctx, msg); err != nil {
		return s.fail(err)
	}
	s.logger.Info("email sent", "to", sub.Email, "subject", subject)
	return nil
}

func (s *EmailSink) buildMessage(subject string, changes []model.ScoredChange, sub model.AlertSubscription) (*mail.Msg, error) {
	text, err := render.Text(changes)
	if err != nil {
		return nil, err
	}
	html, err := render.HTML(changes)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("setting sender %q: %w", s.cfg.From, err)
	}
	if err := msg.To(sub.Email); err != nil {
		return nil, fmt.Errorf("setting recipient %q: %w", sub.Email, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)
	return msg, nil
}

func (s *EmailSink) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// fail wraps SMTP failures; 4xx replies are reported as temporary.
func (s *EmailSink) fail(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var sendErr *mail.SendError
	temporary := errors.As(err, &sendErr) && sendErr.IsTemp()
	return &model.DeliveryError{Sink: s.Name(), Temporary: temporary, Err: err}
}
