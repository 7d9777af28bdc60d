// Package notification sends transactional email for the booking lifecycle.
package notification

import (
	"fmt"

	"stitchtherapy/config"
	"stitchtherapy/utils"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// EmailSender delivers a single message to one recipient.
type EmailSender interface {
	Send(toEmail, toName, subject, plainText, htmlBody string) error
}

// SendGridSender sends mail through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *zap.Logger
}

// NewSendGridSender builds a sender from the configured API key.
func NewSendGridSender() *SendGridSender {
	cfg := config.AppConfig
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail(cfg.EmailFromName, cfg.EmailFrom),
		logger: utils.GetLogger().Named("email"),
	}
}

// Send delivers one message. Non-2xx API responses are returned as errors.
func (s *SendGridSender) Send(toEmail, toName, subject, plainText, htmlBody string) error {
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(s.from, subject, to, plainText, htmlBody)

	resp, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	s.logger.Info("email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

// LogSender is used when no SendGrid key is configured. It logs the message
// instead of delivering it so development flows stay observable.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a log-only sender.
func NewLogSender() *LogSender {
	return &LogSender{logger: utils.GetLogger().Named("email")}
}

// Send logs the message without delivering it.
func (s *LogSender) Send(toEmail, toName, subject, plainText, _ string) error {
	s.logger.Info("email suppressed (no delivery key configured)",
		zap.String("to", toEmail),
		zap.String("subject", subject),
		zap.String("body", plainText),
	)
	return nil
}

// NewSender picks the SendGrid sender when a key is configured, the log
// sender otherwise.
func NewSender() EmailSender {
	if config.AppConfig.SendGridAPIKey == "" {
		return NewLogSender()
	}
	return NewSendGridSender()
}
