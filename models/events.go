package models

import "time"

// Domain event types emitted by the booking lifecycle.
const (
	EventBookingCreated         = "booking.created"
	EventBookingUpdated         = "booking.updated"
	EventBookingPaymentVerified = "booking.payment_verified"
	EventBookingReminder        = "booking.reminder"
)

// DomainEvent is the envelope handed to event subscribers (webhook
// dispatcher, realtime push). Payload must be JSON-serialisable.
type DomainEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"event"`
	OccurredAt time.Time      `json:"timestamp"`
	Payload    map[string]any `json:"data"`
}
