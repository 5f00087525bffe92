package mail

import (
	"context"

	"getpay-backend/internal/pkg/logger"
)

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	ToName      string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers a message; implementations return delivery errors to the caller.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer only logs. It is used when no mail transport is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	logger.Warn().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Strs("attachments", names).
		Msg("mail transport not configured - email not sent")
	return nil
}

type Config struct {
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	From           string
	FromName       string
	SendgridAPIKey string
}

// New picks SendGrid when an API key is set, SMTP when a host is set, and
// the log-only mailer otherwise.
func New(cfg Config) Mailer {
	switch {
	case cfg.SendgridAPIKey != "":
		return NewSendgridMailer(cfg.SendgridAPIKey, cfg.FromName, cfg.From)
	case cfg.SMTPHost != "":
		return NewSMTPMailer(cfg)
	default:
		return LogMailer{}
	}
}
