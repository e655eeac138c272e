package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/fixmate-lk/fixmate-backend/pkg/config"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers transactional email. Implementations must return an
// error on delivery failure so callers can log it; they never panic.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type smtpSender struct {
	cfg  config.SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP builds a Sender backed by a plain SMTP relay.
func NewSMTP(cfg config.SMTPConfig) Sender {
	return &smtpSender{cfg: cfg, send: smtp.SendMail}
}

func (s *smtpSender) Send(_ context.Context, msg Message) error {
	if !s.cfg.Enabled() {
		return fmt.Errorf("smtp is not configured")
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient is required")
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	payload := buildPayload(s.cfg.DefaultFrom, msg)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, s.cfg.DefaultFrom, []string{msg.To}, payload); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func buildPayload(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// noopSender drops mail on the floor, logging what would have been sent.
// Used in dev when no relay is configured.
type noopSender struct {
	logg *logger.Logger
}

// NewNoop builds a Sender that only logs.
func NewNoop(logg *logger.Logger) Sender {
	return &noopSender{logg: logg}
}

func (n *noopSender) Send(ctx context.Context, msg Message) error {
	if n.logg != nil {
		ctx = n.logg.WithFields(ctx, map[string]any{"to": msg.To, "subject": msg.Subject})
		n.logg.Info(ctx, "email suppressed (no smtp relay configured)")
	}
	return nil
}

// FromConfig picks the SMTP sender when a relay is configured, otherwise
// the logging no-op.
func FromConfig(cfg config.SMTPConfig, logg *logger.Logger) Sender {
	if cfg.Enabled() {
		return NewSMTP(cfg)
	}
	return NewNoop(logg)
}
