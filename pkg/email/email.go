// Package email delivers transactional and campaign mail.
package email

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	// Kind labels the message in logs and queued jobs, e.g. "verification" or "campaign".
	Kind       string
	CampaignID int64
}

// Sender delivers a message and returns a provider or job reference.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SMSSender delivers a text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// VerificationMessage builds the six digit code email.
func VerificationMessage(to, code string, ttlHours int) Message {
	return Message{
		To:      to,
		Subject: "Your verification code",
		HTML:    VerificationTemplate(code, ttlHours),
		Kind:    "verification",
	}
}

// VerificationTemplate renders the verification code body.
func VerificationTemplate(code string, ttlHours int) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Verify your email</h2>
  <p>Use this code to finish setting up your account:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">%s</p>
  <p>The code expires in %d hours. If you did not request it, ignore this email.</p>
</body>
</html>`, html.EscapeString(code), ttlHours)
}

// TextToHTML escapes plain campaign text and keeps its line breaks.
func TextToHTML(text string) string {
	escaped := html.EscapeString(text)
	return "<div>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</div>"
}
