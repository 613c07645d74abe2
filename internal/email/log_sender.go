package email

import (
	"context"

	"go.uber.org/zap"
)

// LogSender logs messages instead of delivering them. Used when SMTP is not configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message envelope. The body carries single-use tokens and is never logged.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email not sent: smtp disabled",
		zap.String("kind", msg.Kind),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
