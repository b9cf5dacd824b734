package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured is returned by New when the default addresses are missing.
	ErrNotConfigured = errors.New("mail: e-mail settings are not set")
	// ErrTransport wraps every failure reported by a Transport.
	ErrTransport = errors.New("mail: transport failure")
)

// Config holds the default addresses of the mailer.
type Config struct {
	From       string
	To         string
	SenderName string
}

// Message is a single HTML email.
type Message struct {
	FromName string
	From     string
	To       string
	Subject  string
	HTML     string
}

// Transport opens delivery sessions. One session carries a whole batch so the
// connection cost is paid once per batch.
type Transport interface {
	Open(ctx context.Context) (Session, error)
}

// Session delivers messages over an open connection.
type Session interface {
	Send(ctx context.Context, msgs ...Message) error
	Close() error
}

// Mailer sends one-off and mass emails through a Transport.
type Mailer struct {
	cfg       Config
	transport Transport
}

// New validates the default addresses and returns a Mailer.
func New(cfg Config, transport Transport) (*Mailer, error) {
	cfg.From = strings.TrimSpace(cfg.From)
	cfg.To = strings.TrimSpace(cfg.To)
	if cfg.From == "" || cfg.To == "" {
		return nil, ErrNotConfigured
	}
	if transport == nil {
		return nil, fmt.Errorf("%w: transport is nil", ErrNotConfigured)
	}
	return &Mailer{cfg: cfg, transport: transport}, nil
}

func (m *Mailer) message(subject, body, from, to string) Message {
	if from == "" {
		from = m.cfg.From
	}
	if to == "" {
		to = m.cfg.To
	}
	return Message{FromName: m.cfg.SenderName, From: from, To: to, Subject: subject, HTML: body}
}

// SendOne sends a single message. Empty from/to fall back to the defaults.
func (m *Mailer) SendOne(ctx context.Context, subject, body, from, to string) error {
	return m.deliver(ctx, []Message{m.message(subject, body, from, to)})
}

// SendMany sends one message per recipient over a single transport session.
// subjectFn, bodyFn and toFn compute the per-recipient parts. An empty
// recipient list is a no-op.
func SendMany[T any](ctx context.Context, m *Mailer, recipients []T, subjectFn, bodyFn, toFn func(T) string, from string) error {
	if len(recipients) == 0 {
		return nil
	}
	msgs := make([]Message, 0, len(recipients))
	for _, r := range recipients {
		msgs = append(msgs, m.message(subjectFn(r), bodyFn(r), from, toFn(r)))
	}
	return m.deliver(ctx, msgs)
}

func (m *Mailer) deliver(ctx context.Context, msgs []Message) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	sess, err := m.transport.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: open: %w", ErrTransport, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close: %w", ErrTransport, cerr)
		}
	}()
	if err := sess.Send(ctx, msgs...); err != nil {
		return fmt.Errorf("%w: send: %w", ErrTransport, err)
	}
	return nil
}
