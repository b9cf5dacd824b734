package mail

import (
	"context"
	"crypto/tls"
	"time"

	gomail "gopkg.in/mail.v2"
)

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	SSL     bool
	Timeout time.Duration
}

// SMTPTransport dials one SMTP connection per session.
type SMTPTransport struct {
	dialer *gomail.Dialer
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	d := gomail.NewDialer(cfg.Host, port, cfg.User, cfg.Pass)
	d.SSL = cfg.SSL || port == 465
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}
	return &SMTPTransport{dialer: d}
}

func (t *SMTPTransport) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sc, err := t.dialer.Dial()
	if err != nil {
		return nil, err
	}
	return &smtpSession{sc: sc}, nil
}

type smtpSession struct {
	sc gomail.SendCloser
}

// Send stops at the first rejected message, like the underlying client.
func (s *smtpSession) Send(ctx context.Context, msgs ...Message) error {
	out := make([]*gomail.Message, 0, len(msgs))
	for _, msg := range msgs {
		m := gomail.NewMessage()
		m.SetAddressHeader("From", msg.From, msg.FromName)
		m.SetHeader("To", msg.To)
		m.SetHeader("Subject", msg.Subject)
		m.SetBody("text/html", msg.HTML)
		out = append(out, m)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return gomail.Send(s.sc, out...)
}

func (s *smtpSession) Close() error { return s.sc.Close() }
