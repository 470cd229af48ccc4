package infra_mailer

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/vpetrakov/learnhub/core/internal/config"
)

// SMTPMailer delivers activation codes out of band.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg config.SMTP) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) SendActivationMail(to string, name string, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Activate Your Account")
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>Hello %s,</p><p>Your activation code is <b>%s</b>. It expires in 5 minutes.</p>",
		name, code,
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send activation mail: %w", err)
	}
	return nil
}

// LogMailer is used in development when no SMTP host is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer() *LogMailer {
	return &LogMailer{logger: slog.Default()}
}

func (m *LogMailer) SendActivationMail(to string, name string, code string) error {
	m.logger.Info("activation mail (not sent, no SMTP configured)",
		slog.String("to", to),
		slog.String("code", code),
	)
	return nil
}
