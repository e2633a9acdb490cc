package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

// NewResendSender creates a Resend-backed sender.
func NewResendSender(apiKey, fromAddress, fromName string, logger *zap.Logger) (*ResendSender, error) {
	if apiKey == "" {
		return nil, errors.New("resend API key is required")
	}
	if fromAddress == "" {
		return nil, errors.New("from address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	from := fromAddress
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromAddress)
	}
	return &ResendSender{client: resend.NewClient(apiKey), from: from, logger: logger}, nil
}

func (s *ResendSender) Send(ctx context.Context, msg Message) (string, error) {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.logger.Warn("resend send failed", zap.String("to", msg.To), zap.String("kind", msg.Kind), zap.Error(err))
		return "", fmt.Errorf("send %s email: %w", msg.Kind, err)
	}
	s.logger.Info("email sent", zap.String("to", msg.To), zap.String("kind", msg.Kind), zap.String("id", sent.Id))
	return sent.Id, nil
}
