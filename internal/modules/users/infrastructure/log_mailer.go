package infrastructure

import (
	"context"
	"log/slog"
	"strings"

	"toursApi/internal/modules/users/application/port"
)

// LogMailer writes outgoing mail to the log instead of delivering it.
type LogMailer struct {
	from   string
	logger *slog.Logger
}

var _ port.Mailer = (*LogMailer)(nil)

func NewLogMailer(from string, logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{from: from, logger: logger.With(slog.String("component", "mailer"))}
}

func (m *LogMailer) SendWelcome(ctx context.Context, to port.Recipient, profileURL string) error {
	m.logger.InfoContext(ctx, "mail queued",
		slog.String("template", "welcome"),
		slog.String("from", m.from),
		slog.String("to", to.Email),
		slog.String("subject", "Welcome to the Natours Family!"),
		slog.String("greeting", "Hi "+firstName(to.Name)),
		slog.String("url", profileURL),
	)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to port.Recipient, resetURL string) error {
	m.logger.InfoContext(ctx, "mail queued",
		slog.String("template", "passwordReset"),
		slog.String("from", m.from),
		slog.String("to", to.Email),
		slog.String("subject", "Your password reset token (valid for only 10 minutes)"),
		slog.String("url", resetURL),
	)
	return nil
}

func firstName(name string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first
}
