package mail

import (
	"context"

	"github.com/dmitrijs2005/tourbook/internal/logging"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
)

// LogSender writes messages to the log instead of delivering them. Used
// in development when no broker is configured.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log.With("module", "mail")}
}

func (s *LogSender) SendWelcome(ctx context.Context, u *models.User, url string) error {
	s.emit(ctx, newMessage(KindWelcome, WelcomeSubject, u, url))
	return nil
}

func (s *LogSender) SendPasswordReset(ctx context.Context, u *models.User, url string) error {
	s.emit(ctx, newMessage(KindPasswordReset, PasswordResetSubject, u, url))
	return nil
}

func (s *LogSender) emit(ctx context.Context, m Message) {
	s.log.Info(ctx, "mail not delivered, no transport configured",
		"kind", m.Kind, "to", m.To, "subject", m.Subject, "url", m.URL)
}
