// Package notify delivers the daily report by email over SMTP.
package notify

import (
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hzhou/vibepapers/internal/config"
)

// ErrSMTPNotConfigured indicates delivery was requested without a usable
// SMTP configuration.
var ErrSMTPNotConfigured = errors.New("smtp not configured")

// Mailer sends HTML mail through one SMTP server with STARTTLS.
type Mailer struct {
	log zerolog.Logger
	cfg config.SMTP
}

// NewMailer creates a Mailer from the SMTP config section.
func NewMailer(log zerolog.Logger, cfg config.SMTP) *Mailer {
	return &Mailer{log: log, cfg: cfg}
}

// Configured reports whether delivery is possible.
func (m *Mailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.Username != "" && m.cfg.Password != "" && len(m.cfg.To) > 0
}

// Send delivers htmlBody with the given subject to every configured
// recipient.
func (m *Mailer) Send(subject, htmlBody string) error {
	if !m.Configured() {
		return fmt.Errorf("%w: host, username, password, and recipients are required", ErrSMTPNotConfigured)
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	msg := buildMessage(from, m.cfg.To, subject, htmlBody)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	m.log.Info().Str("server", addr).Strs("to", m.cfg.To).Msg("sending report email")
	started := time.Now()
	if err := smtp.SendMail(addr, auth, from, m.cfg.To, msg); err != nil {
		return fmt.Errorf("sending mail via %s: %w", addr, err)
	}
	m.log.Info().Dur("took", time.Since(started)).Msg("report email sent")
	return nil
}

// buildMessage assembles an RFC 5322 message with an HTML body.
func buildMessage(from string, to []string, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return []byte(b.String())
}
