package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stitchtherapy/models"
)

type captureSender struct {
	toEmail string
	subject string
	plain   string
	html    string
}

func (c *captureSender) Send(toEmail, _, subject, plain, html string) error {
	c.toEmail = toEmail
	c.subject = subject
	c.plain = plain
	c.html = html
	return nil
}

func fixtures() (*models.User, *models.Booking, *models.PlatformSettings) {
	client := &models.User{Name: "Ada", Email: "ada@example.com"}
	booking := &models.Booking{
		ID:          "b1",
		ScheduledAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	settings := &models.PlatformSettings{
		PlatformName:              "Happiness Therapy",
		ManualPaymentInstructions: "Transfer to account 12-34-56.",
	}
	return client, booking, settings
}

func TestPendingPaymentIncludesInstructions(t *testing.T) {
	sink := &captureSender{}
	mailer := NewMailer(sink)
	client, booking, settings := fixtures()

	require.NoError(t, mailer.SendPendingPayment(client, booking, settings))

	assert.Equal(t, "ada@example.com", sink.toEmail)
	assert.Contains(t, sink.subject, "reserved")
	assert.Contains(t, sink.plain, "Transfer to account 12-34-56.")
	assert.Contains(t, sink.plain, "pending payment")
}

func TestConfirmationIncludesCallLink(t *testing.T) {
	sink := &captureSender{}
	mailer := NewMailer(sink)
	client, booking, settings := fixtures()
	booking.SecureCall = &models.SecureCall{Link: "https://app.example.com/meeting/r1?token=abc"}

	require.NoError(t, mailer.SendConfirmation(client, booking, settings))

	assert.Contains(t, sink.plain, "https://app.example.com/meeting/r1?token=abc")
	assert.Contains(t, sink.html, "https://app.example.com/meeting/r1?token=abc")
}

func TestReminderNamesThePlatform(t *testing.T) {
	sink := &captureSender{}
	mailer := NewMailer(sink)
	client, booking, settings := fixtures()

	require.NoError(t, mailer.SendReminder(client, booking, settings))

	assert.Contains(t, sink.subject, "Reminder")
	assert.Contains(t, sink.plain, "Happiness Therapy")
}
