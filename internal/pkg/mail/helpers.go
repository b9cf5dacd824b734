package mail

import (
	"fmt"

	"github.com/diy-network/core/internal/config"
	"go.uber.org/zap"
)

// NewFromConfig builds the Mailer and its Transport from the application config.
func NewFromConfig(cfg config.MailConfig, logger *zap.Logger) (*Mailer, error) {
	var transport Transport
	switch cfg.Provider {
	case "smtp":
		transport = NewSMTPTransport(SMTPConfig{
			Host:    cfg.SMTP.Host,
			Port:    cfg.SMTP.Port,
			User:    cfg.SMTP.User,
			Pass:    cfg.SMTP.Pass,
			SSL:     cfg.SMTP.SSL,
			Timeout: cfg.SMTP.Timeout,
		})
	case "resend":
		transport = NewResendTransport(cfg.Resend.APIKey)
	case "log":
		transport = NewRecorder(logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.Provider)
	}
	return New(Config{From: cfg.From, To: cfg.To, SenderName: cfg.SenderName}, transport)
}
