package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/matejak/teap/pkg/logger"
)

const (
	defaultFrom  = "intranet@cspii.org"
	resetSubject = "password recovery"
)

// Mailer delivers notification mail to users.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, uid, token string) error
}

// SMTPConfig holds the connection settings for an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpMailer struct {
	config SMTPConfig
}

// NewSMTPMailer returns a Mailer backed by a plain SMTP relay.
func NewSMTPMailer(cfg SMTPConfig) Mailer {
	if cfg.From == "" {
		cfg.From = defaultFrom
	}
	return &smtpMailer{config: cfg}
}

func (m *smtpMailer) SendPasswordReset(ctx context.Context, to, uid, token string) error {
	l := logger.FromContext(ctx)

	body := fmt.Sprintf("Hello %s,\r\n\r\n"+
		"A password reset was requested for your account. "+
		"Use the token below to set a new password:\r\n\r\n"+
		"%s\r\n\r\n"+
		"If you did not request this, you can ignore this message.\r\n", uid, token)

	if err := m.send(to, resetSubject, body); err != nil {
		l.Error("failed to send password reset mail", zap.String("to", to), zap.Error(err))
		return errors.Wrap(err, "send password reset mail")
	}

	l.Info("password reset mail sent", zap.String("to", to))
	return nil
}

func (m *smtpMailer) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", m.config.From))
	message.WriteString(fmt.Sprintf("To: %s\r\n", to))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)

	return smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(message.String()))
}
