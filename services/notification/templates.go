package notification

import (
	"fmt"
	"time"

	"stitchtherapy/models"
)

// Mailer composes lifecycle emails and hands them to the configured sender.
type Mailer struct {
	sender EmailSender
}

// NewMailer wraps a sender with the platform's templates.
func NewMailer(sender EmailSender) *Mailer {
	return &Mailer{sender: sender}
}

func formatSession(b *models.Booking) string {
	return b.ScheduledAt.Format("Monday, 2 January 2006 at 15:04 MST")
}

// SendPendingPayment tells a client their booking is held awaiting manual
// payment, including the operator's payment instructions.
func (m *Mailer) SendPendingPayment(client *models.User, booking *models.Booking, settings *models.PlatformSettings) error {
	platform := settings.PlatformName
	subject := fmt.Sprintf("Your %s session is reserved", platform)

	plain := fmt.Sprintf(
		"Hi %s,\n\nYour session on %s is reserved and pending payment.\n\n%s\n\nOnce payment is confirmed you will receive your secure session link.\n\n%s",
		client.Name, formatSession(booking), settings.ManualPaymentInstructions, platform)

	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your session on <strong>%s</strong> is reserved and pending payment.</p><p>%s</p><p>Once payment is confirmed you will receive your secure session link.</p><p>%s</p>",
		client.Name, formatSession(booking), settings.ManualPaymentInstructions, platform)

	return m.sender.Send(client.Email, client.Name, subject, plain, html)
}

// SendConfirmation sends the secure call link after payment verification.
func (m *Mailer) SendConfirmation(client *models.User, booking *models.Booking, settings *models.PlatformSettings) error {
	platform := settings.PlatformName
	subject := fmt.Sprintf("Your %s session is confirmed", platform)

	link := ""
	if booking.SecureCall != nil {
		link = booking.SecureCall.Link
	}

	plain := fmt.Sprintf(
		"Hi %s,\n\nYour session on %s is confirmed.\n\nJoin here: %s\n\nThe link is personal to you and expires after the session.\n\n%s",
		client.Name, formatSession(booking), link, platform)

	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your session on <strong>%s</strong> is confirmed.</p><p><a href=%q>Join your session</a></p><p>The link is personal to you and expires after the session.</p><p>%s</p>",
		client.Name, formatSession(booking), link, platform)

	return m.sender.Send(client.Email, client.Name, subject, plain, html)
}

// SendReminder nudges a client ahead of their session start.
func (m *Mailer) SendReminder(client *models.User, booking *models.Booking, settings *models.PlatformSettings) error {
	platform := settings.PlatformName
	subject := fmt.Sprintf("Reminder: your %s session is coming up", platform)

	until := time.Until(booking.ScheduledAt).Round(time.Hour)
	plain := fmt.Sprintf(
		"Hi %s,\n\nThis is a reminder that your session is on %s (in about %s).\n\n%s",
		client.Name, formatSession(booking), until, platform)

	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>This is a reminder that your session is on <strong>%s</strong>.</p><p>%s</p>",
		client.Name, formatSession(booking), platform)

	return m.sender.Send(client.Email, client.Name, subject, plain, html)
}
