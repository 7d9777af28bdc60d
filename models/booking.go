package models

import "time"

// Booking statuses. Pending is the initial state for guest and self-service
// bookings; verified means staff confirmed payment and a secure call link
// exists; completed and cancelled are terminal.
const (
	BookingPending   = "pending"
	BookingScheduled = "scheduled"
	BookingVerified  = "verified"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// DefaultSessionMinutes is assumed whenever a booking lacks an explicit duration.
const DefaultSessionMinutes = 50

// PaymentInfo is free-text metadata about an external, manually handled
// payment. It is never charged by this system.
type PaymentInfo struct {
	Provider  string  `bson:"provider,omitempty" json:"provider,omitempty"`
	Reference string  `bson:"reference,omitempty" json:"reference,omitempty"`
	Amount    float64 `bson:"amount,omitempty" json:"amount,omitempty"`
	Currency  string  `bson:"currency,omitempty" json:"currency,omitempty"`
}

// SecureCall holds the one-time call-link state. The raw token is never
// persisted, only its SHA-256 hash.
type SecureCall struct {
	TokenHash string    `bson:"tokenHash,omitempty" json:"-"`
	ExpiresAt time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	Used      bool      `bson:"used" json:"used"`
	Link      string    `bson:"link,omitempty" json:"link,omitempty"`
}

// Booking represents a scheduled therapy session.
type Booking struct {
	ID              string      `bson:"id" json:"id"`
	ClientID        string      `bson:"clientId" json:"clientId"`
	TherapistID     string      `bson:"therapistId" json:"therapistId"`
	ScheduledAt     time.Time   `bson:"scheduledAt" json:"scheduledAt"`
	DurationMinutes int         `bson:"durationMinutes" json:"durationMinutes"`
	Status          string      `bson:"status" json:"status"`
	Payment         PaymentInfo `bson:"payment,omitempty" json:"payment,omitzero"`
	RoomID          string      `bson:"roomId" json:"roomId"`
	SecureCall      *SecureCall `bson:"secureCall,omitempty" json:"secureCall,omitempty"`
	Notes           string      `bson:"notes,omitempty" json:"notes,omitempty"`
	CallStartedAt   *time.Time  `bson:"callStartedAt,omitempty" json:"callStartedAt,omitempty"`
	CallEndedAt     *time.Time  `bson:"callEndedAt,omitempty" json:"callEndedAt,omitempty"`
	CreatedAt       time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// Duration returns the booking length, falling back to the platform default.
func (b Booking) Duration() time.Duration {
	minutes := b.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultSessionMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// EndsAt is the exclusive end instant of the booked interval.
func (b Booking) EndsAt() time.Time {
	return b.ScheduledAt.Add(b.Duration())
}

// Terminal reports whether the booking can no longer change state.
func (b Booking) Terminal() bool {
	return b.Status == BookingCompleted || b.Status == BookingCancelled
}

// BookingSummary aggregates counts by status over a reporting range.
type BookingSummary struct {
	Range     string `json:"range"`
	Total     int64  `json:"total"`
	Pending   int64  `json:"pending"`
	Scheduled int64  `json:"scheduled"`
	Verified  int64  `json:"verified"`
	Completed int64  `json:"completed"`
	Cancelled int64  `json:"cancelled"`
}
