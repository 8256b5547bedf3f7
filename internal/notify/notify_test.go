package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hzhou/vibepapers/internal/config"
)

func fullSMTP() config.SMTP {
	return config.SMTP{
		Host:     "mail.example.com",
		Port:     587,
		Username: "bot@example.com",
		Password: "secret",
		From:     "bot@example.com",
		To:       []string{"a@example.com", "b@example.com"},
	}
}

func TestConfigured(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.SMTP)
		want   bool
	}{
		{
			name:   "complete",
			mutate: func(*config.SMTP) {},
			want:   true,
		},
		{
			name:   "no host",
			mutate: func(c *config.SMTP) { c.Host = "" },
		},
		{
			name:   "no credentials",
			mutate: func(c *config.SMTP) { c.Password = "" },
		},
		{
			name:   "no recipients",
			mutate: func(c *config.SMTP) { c.To = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fullSMTP()
			tt.mutate(&cfg)
			m := NewMailer(zerolog.Nop(), cfg)
			if got := m.Configured(); got != tt.want {
				t.Errorf("Configured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSendUnconfigured(t *testing.T) {
	m := NewMailer(zerolog.Nop(), config.SMTP{})

	err := m.Send("subject", "<p>body</p>")
	if !errors.Is(err, ErrSMTPNotConfigured) {
		t.Errorf("Send() error = %v, want ErrSMTPNotConfigured", err)
	}
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("bot@example.com", []string{"a@example.com", "b@example.com"}, "Daily Report", "<p>hi</p>"))

	for _, want := range []string{
		"From: bot@example.com\r\n",
		"To: a@example.com, b@example.com\r\n",
		"Subject: Daily Report\r\n",
		"Content-Type: text/html; charset=utf-8\r\n",
		"\r\n\r\n<p>hi</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildMessageEncodesSubject(t *testing.T) {
	msg := string(buildMessage("a@b.c", []string{"d@e.f"}, "日报 2024-05-01", "x"))

	if strings.Contains(msg, "Subject: 日报") {
		t.Errorf("non-ASCII subject not encoded:\n%s", msg)
	}
	if !strings.Contains(msg, "=?utf-8?q?") {
		t.Errorf("expected Q-encoded subject:\n%s", msg)
	}
}
