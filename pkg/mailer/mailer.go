// Package mailer delivers single-use tokens to users out of band.
package mailer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string, expiresAt time.Time) error
	SendEmailVerification(ctx context.Context, to, token string) error
}

// LogMailer writes messages to the application log instead of sending them.
// It is the delivery used until an SMTP relay is configured.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log.With(zap.String("component", "mailer"))}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, token string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.log.Info("password reset requested",
		zap.String("to", to),
		zap.String("token", token),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}

func (m *LogMailer) SendEmailVerification(ctx context.Context, to, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.log.Info("email verification requested",
		zap.String("to", to),
		zap.String("token", token),
	)
	return nil
}
