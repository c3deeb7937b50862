package mailer

import (
	"context"
	"errors"
	"strings"

	"github.com/marcoalvarez/boostgrid-backend/pkg/config"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
)

// Message is a single outbound notification email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers notification emails. Implementations must be safe for
// concurrent use. Delivery is best-effort everywhere it is called.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the mailer for the current configuration. No delivery backend
// is wired yet, so enabled environments get the logging sink and disabled
// ones drop messages silently.
func New(cfg config.MailerConfig, logg *logger.Logger) (Mailer, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	return NewLogMailer(logg, cfg.FromEmail)
}

// Noop drops every message.
type Noop struct{}

// Send implements Mailer.
func (Noop) Send(ctx context.Context, msg Message) error { return nil }

// LogMailer records outbound messages in the service log instead of
// delivering them.
type LogMailer struct {
	logg *logger.Logger
	from string
}

// NewLogMailer builds a logging mail sink.
func NewLogMailer(logg *logger.Logger, from string) (*LogMailer, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &LogMailer{logg: logg, from: strings.TrimSpace(from)}, nil
}

// Send implements Mailer.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient required")
	}
	logCtx := m.logg.WithFields(ctx, map[string]any{
		"from":    m.from,
		"to":      msg.To,
		"subject": msg.Subject,
	})
	m.logg.Info(logCtx, "notification email recorded")
	return nil
}
