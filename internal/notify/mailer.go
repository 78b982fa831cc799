package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/example/campmeeting/internal/core"
)

// SMTPConfig configures the staff mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Mailer emails staff notifications through an SMTP relay.
type Mailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer validates cfg and returns a Mailer.
func NewMailer(cfg SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host cannot be empty")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("sender email address cannot be empty")
	}
	if cfg.To == "" {
		return nil, fmt.Errorf("recipient email address cannot be empty")
	}
	return &Mailer{cfg: cfg, send: smtp.SendMail}, nil
}

var subjects = map[core.NotificationKind]string{
	core.PrayerSubmitted:  "New prayer request",
	core.FeedbackReceived: "New feedback received",
	core.FeedbackFlagged:  "Feedback needs a response",
}

// Notify sends one plain-text email per notification.
func (m *Mailer) Notify(_ context.Context, n core.Notification) error {
	subject, ok := subjects[n.Kind]
	if !ok {
		subject = "Camp meeting notification"
	}
	body := fmt.Sprintf("%s\r\n\r\nReference: %s\r\n", n.Summary, n.DocumentID)
	if err := m.SendEmail(m.cfg.To, subject, body); err != nil {
		return err
	}
	return nil
}

// SendEmail sends one message. The content type is HTML when the body looks like HTML.
func (m *Mailer) SendEmail(recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}

	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}
	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", recipient, m.cfg.From, subject, contentType, body))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{recipient}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
