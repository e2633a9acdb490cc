package email

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of delivering them. Used in development.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) (string, error) {
	id := uuid.NewString()
	s.logger.Info("email (log delivery)",
		zap.String("id", id),
		zap.String("kind", msg.Kind),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("html", msg.HTML),
	)
	return id, nil
}

// LogSMSSender logs SMS messages. No SMS provider is wired.
type LogSMSSender struct {
	logger *zap.Logger
}

// NewLogSMSSender creates a log-only SMS sender.
func NewLogSMSSender(logger *zap.Logger) *LogSMSSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSMSSender{logger: logger}
}

func (s *LogSMSSender) SendSMS(_ context.Context, to, body string) (string, error) {
	id := uuid.NewString()
	s.logger.Info("sms (log delivery)", zap.String("id", id), zap.String("to", to), zap.String("body", body))
	return id, nil
}
