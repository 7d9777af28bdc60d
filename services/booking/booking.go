// Package booking implements the session booking lifecycle: creation with
// overlap exclusion, manual payment verification, secure call links,
// rescheduling, and reporting.
package booking

import (
	"encoding/json"
	"time"

	auditRepo "stitchtherapy/database/repository/audit"
	availabilityRepo "stitchtherapy/database/repository/availability"
	bookingRepo "stitchtherapy/database/repository/booking"
	settingsRepo "stitchtherapy/database/repository/settings"
	userRepo "stitchtherapy/database/repository/user"
	"stitchtherapy/models"
	"stitchtherapy/services/events"
	"stitchtherapy/services/notification"
	"stitchtherapy/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateInput is the payload for an authenticated booking.
type CreateInput struct {
	TherapistID     string    `json:"therapistId" binding:"required"`
	ScheduledAt     time.Time `json:"scheduledAt" binding:"required"`
	DurationMinutes int       `json:"durationMinutes"`
	Notes           string    `json:"notes"`
}

// GuestInput is the payload for an unauthenticated booking.
type GuestInput struct {
	TherapistID     string    `json:"therapistId" binding:"required"`
	ScheduledAt     time.Time `json:"scheduledAt" binding:"required"`
	DurationMinutes int       `json:"durationMinutes"`
	Name            string    `json:"name" binding:"required"`
	Email           string    `json:"email" binding:"required,email"`
	Phone           string    `json:"phone"`
	Consent         bool      `json:"consent"`
}

// Actor identifies who is performing an operation.
type Actor struct {
	ID        string
	Role      string
	IPAddress string
	UserAgent string
}

// BookingService exposes the booking lifecycle.
type BookingService interface {
	// Create books a session for an authenticated client.
	Create(actor Actor, input CreateInput) (*models.Booking, error)
	// CreateGuest books a session for an unauthenticated visitor, creating a
	// client account when the email is new. Rate limited per IP.
	CreateGuest(input GuestInput, ip string) (*models.Booking, error)
	// GetByID fetches a booking the actor is allowed to see.
	GetByID(actor Actor, id string) (*models.Booking, error)
	// ListForActor lists bookings visible to the actor.
	ListForActor(actor Actor) ([]models.Booking, error)
	// VerifyPayment marks payment confirmed and mints the secure call link.
	// A second verification requires the admin override flag.
	VerifyPayment(actor Actor, id string, payment models.PaymentInfo, override bool) (*models.Booking, error)
	// Reschedule moves a booking to a new start, re-running overlap exclusion.
	Reschedule(actor Actor, id string, newStart time.Time) (*models.Booking, error)
	// UpdateStatus applies a lifecycle transition if the table permits it.
	UpdateStatus(actor Actor, id, newStatus string) (*models.Booking, error)
	// UpdateNotes patches session notes, therapist-or-admin only.
	UpdateNotes(actor Actor, id, notes string) (*models.Booking, error)
	// AvailableSlots lists bookable slots for a therapist on a date.
	AvailableSlots(therapistID, date string, durationMinutes int) (*models.SlotListing, error)
	// ValidateCallToken checks a raw call-link token against a room's booking.
	ValidateCallToken(roomID, rawToken string) (*models.Booking, error)
	// StartCall records the call start on a verified booking.
	StartCall(actor Actor, id string) (*models.Booking, error)
	// EndCall records the call end and completes the booking.
	EndCall(actor Actor, id string) (*models.Booking, error)
	// Mute broadcasts a mute request into the booking's call room.
	Mute(actor Actor, id, participantID string) error
	// Summary aggregates booking counts since the named range.
	Summary(rangeName string) (*models.BookingSummary, error)
	// ClientDirectory lists the clients a therapist has seen.
	ClientDirectory(actor Actor) ([]models.ClientDirectoryEntry, error)
}

// ReminderScheduler defers a session reminder for a verified booking.
type ReminderScheduler interface {
	Schedule(b *models.Booking) error
}

// RoomAnnouncer pushes server-originated control messages into a call room.
type RoomAnnouncer interface {
	Announce(room, msgType string, data json.RawMessage)
}

// DefaultBookingService is the production implementation.
type DefaultBookingService struct {
	bookings     bookingRepo.BookingRepository
	users        userRepo.UserRepository
	availability availabilityRepo.AvailabilityRepository
	settings     settingsRepo.SettingsRepository
	audit        auditRepo.AuditRepository
	bus          *events.Bus
	mailer       *notification.Mailer
	cache        *redis.Client
	reminders    ReminderScheduler
	rooms        RoomAnnouncer
	logger       *zap.Logger
}

// Deps bundles the service's collaborators.
type Deps struct {
	Bookings     bookingRepo.BookingRepository
	Users        userRepo.UserRepository
	Availability availabilityRepo.AvailabilityRepository
	Settings     settingsRepo.SettingsRepository
	Audit        auditRepo.AuditRepository
	Bus          *events.Bus
	Mailer       *notification.Mailer
	Cache        *redis.Client
	Reminders    ReminderScheduler
	Rooms        RoomAnnouncer
}

// NewDefaultBookingService constructs the service.
func NewDefaultBookingService(d Deps) *DefaultBookingService {
	return &DefaultBookingService{
		bookings:     d.Bookings,
		users:        d.Users,
		availability: d.Availability,
		settings:     d.Settings,
		audit:        d.Audit,
		bus:          d.Bus,
		mailer:       d.Mailer,
		cache:        d.Cache,
		reminders:    d.Reminders,
		rooms:        d.Rooms,
		logger:       utils.GetLogger().Named("booking"),
	}
}

func (s *DefaultBookingService) recordAudit(actor Actor, action, resourceID string, details map[string]any) {
	entry := &models.AuditEntry{
		ID:           uuid.NewString(),
		ActorID:      actor.ID,
		Action:       action,
		ResourceType: "booking",
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    actor.IPAddress,
		UserAgent:    actor.UserAgent,
	}
	if err := s.audit.Append(entry); err != nil {
		s.logger.Warn("audit append failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *DefaultBookingService) publish(eventType string, b *models.Booking) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventType, map[string]any{
		"bookingId":   b.ID,
		"clientId":    b.ClientID,
		"therapistId": b.TherapistID,
		"scheduledAt": b.ScheduledAt,
		"status":      b.Status,
	})
}

// canSee reports whether the actor may read the booking.
func canSee(actor Actor, b *models.Booking) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTherapist:
		return b.TherapistID == actor.ID
	default:
		return b.ClientID == actor.ID
	}
}

func (s *DefaultBookingService) mustGet(actor Actor, id string) (*models.Booking, error) {
	b, err := s.bookings.GetByID(id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, models.NewNotFoundError("booking", id)
	}
	if !canSee(actor, b) {
		return nil, models.NewAuthorizationError("you cannot access this booking")
	}
	return b, nil
}

// GetByID fetches a booking the actor is allowed to see.
func (s *DefaultBookingService) GetByID(actor Actor, id string) (*models.Booking, error) {
	return s.mustGet(actor, id)
}

// ListForActor lists bookings visible to the actor.
func (s *DefaultBookingService) ListForActor(actor Actor) ([]models.Booking, error) {
	return s.bookings.GetForActor(actor.ID, actor.Role)
}
