// Package notification delivers notifications over SMTP.
package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	appnotification "github.com/erp/stockledger/internal/application/notification"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"gopkg.in/gomail.v2"
)

// ErrNoRecipients is returned when a notification has nobody to go to
var ErrNoRecipients = errors.New("notification: no recipients")

// sender is the part of gomail.Dialer the notifier needs
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends notifications as HTML email
type SMTPNotifier struct {
	from   string
	sender sender
}

// NewSMTPNotifier creates a notifier from the notification config
func NewSMTPNotifier(cfg config.NotificationConfig) *SMTPNotifier {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPNotifier{from: from, sender: d}
}

// Send delivers n. gomail has no context support, so ctx is only checked
// before dialing.
func (s *SMTPNotifier) Send(ctx context.Context, n appnotification.Notification) error {
	if len(n.Recipients) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", n.Recipients...)
	msg.SetHeader("Subject", n.Subject)
	msg.SetBody("text/html", n.Body)

	if err := s.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// NoopNotifier drops every notification. Used when notifications are disabled.
type NoopNotifier struct{}

// Send does nothing
func (NoopNotifier) Send(context.Context, appnotification.Notification) error { return nil }

// New returns the SMTP notifier when notifications are enabled
func New(cfg config.NotificationConfig) appnotification.Notifier {
	if !cfg.Enabled {
		return NoopNotifier{}
	}
	return NewSMTPNotifier(cfg)
}

var (
	_ appnotification.Notifier = (*SMTPNotifier)(nil)
	_ appnotification.Notifier = NoopNotifier{}
)
