package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "stitchtherapy/database/repository/booking"
	"stitchtherapy/models"
	"stitchtherapy/services/scheduling"
	"stitchtherapy/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	guestBookingLimit  = 5
	guestBookingPeriod = time.Hour
	writeTimeout       = 10 * time.Second

	// maxSessionMinutes caps a single session well under the OverlapPad
	// candidate window, so the conflict check always sees every booking
	// that could intersect the interval under test.
	maxSessionMinutes = 8 * 60
)

func (s *DefaultBookingService) newBooking(clientID string, therapistID string, scheduledAt time.Time, durationMinutes int, notes string) (*models.Booking, error) {
	if scheduledAt.Before(time.Now()) {
		return nil, models.NewValidationError("scheduledAt", "cannot book a session in the past")
	}
	if durationMinutes < 0 {
		return nil, models.NewValidationError("durationMinutes", "must not be negative")
	}
	if durationMinutes > maxSessionMinutes {
		return nil, models.NewValidationError("durationMinutes",
			fmt.Sprintf("must not exceed %d minutes", maxSessionMinutes))
	}

	therapist, err := s.users.GetByID(therapistID)
	if err != nil {
		return nil, err
	}
	if therapist == nil || therapist.Role != models.RoleTherapist {
		return nil, models.NewNotFoundError("therapist", therapistID)
	}

	return &models.Booking{
		ID:              uuid.NewString(),
		ClientID:        clientID,
		TherapistID:     therapistID,
		ScheduledAt:     scheduledAt,
		DurationMinutes: durationMinutes,
		Status:          models.BookingPending,
		RoomID:          uuid.NewString(),
		Notes:           notes,
	}, nil
}

// insertExclusive writes the booking inside a transaction, rejecting it when
// the interval collides. The filter that loads candidates and the predicate
// that rejects them apply the same half-open interval test.
func (s *DefaultBookingService) insertExclusive(b *models.Booking) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err := s.bookings.CreateExclusive(ctx, b, func(existing []models.Booking) bool {
		return scheduling.HasOverlap(b.ScheduledAt, b.EndsAt(), existing)
	})
	if errors.Is(err, bookingRepo.ErrBookingConflict) {
		return models.NewConflictError("the requested time overlaps an existing booking")
	}
	return err
}

// Create books a session for an authenticated client.
func (s *DefaultBookingService) Create(actor Actor, input CreateInput) (*models.Booking, error) {
	b, err := s.newBooking(actor.ID, input.TherapistID, input.ScheduledAt, input.DurationMinutes, input.Notes)
	if err != nil {
		return nil, err
	}

	if err := s.insertExclusive(b); err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking", b.ID),
		zap.String("therapist", b.TherapistID),
		zap.Time("scheduledAt", b.ScheduledAt))
	s.recordAudit(actor, "booking.create", b.ID, map[string]any{"therapistId": b.TherapistID})
	s.publish(models.EventBookingCreated, b)
	s.sendPendingPayment(b)
	s.invalidateSlotCache(b.TherapistID)
	return b, nil
}

// CreateGuest books a session for an unauthenticated visitor.
func (s *DefaultBookingService) CreateGuest(input GuestInput, ip string) (*models.Booking, error) {
	if !input.Consent {
		return nil, models.NewValidationError("consent", "consent is required to book as a guest")
	}
	if err := s.checkGuestRate(ip); err != nil {
		return nil, err
	}

	client, err := s.guestClient(input)
	if err != nil {
		return nil, err
	}

	b, err := s.newBooking(client.ID, input.TherapistID, input.ScheduledAt, input.DurationMinutes, "")
	if err != nil {
		return nil, err
	}

	if err := s.insertExclusive(b); err != nil {
		return nil, err
	}

	s.logger.Info("guest booking created",
		zap.String("booking", b.ID),
		zap.String("client", client.ID))
	s.recordAudit(Actor{ID: client.ID, Role: models.RoleClient, IPAddress: ip}, "booking.create_guest", b.ID, nil)
	s.publish(models.EventBookingCreated, b)
	s.sendPendingPayment(b)
	s.invalidateSlotCache(b.TherapistID)
	return b, nil
}

// checkGuestRate enforces the per-IP guest booking ceiling via a Redis
// counter keyed by address, expiring after the period.
func (s *DefaultBookingService) checkGuestRate(ip string) error {
	if s.cache == nil || ip == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := fmt.Sprintf("guest_bookings:%s", ip)
	count, err := s.cache.Incr(ctx, key).Result()
	if err != nil {
		// Redis being down never blocks a legitimate booking.
		s.logger.Warn("guest rate counter unavailable", zap.Error(err))
		return nil
	}
	if count == 1 {
		s.cache.Expire(ctx, key, guestBookingPeriod)
	}
	if count > guestBookingLimit {
		return models.NewConflictError("too many guest bookings from this address, try again later")
	}
	return nil
}

func (s *DefaultBookingService) guestClient(input GuestInput) (*models.User, error) {
	existing, err := s.users.GetByEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.provisionClient(input)
}

// provisionClient creates a client account for a new guest email. The
// password is random and never disclosed; the guest claims the account
// through a reset flow.
func (s *DefaultBookingService) provisionClient(input GuestInput) (*models.User, error) {
	randomPw, err := utils.RandomToken(16)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(randomPw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	client := &models.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hash),
		Role:         models.RoleClient,
	}
	if err := s.users.Create(client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *DefaultBookingService) sendPendingPayment(b *models.Booking) {
	if s.mailer == nil {
		return
	}
	client, err := s.users.GetByID(b.ClientID)
	if err != nil || client == nil {
		return
	}
	settings, err := s.settings.Get()
	if err != nil {
		s.logger.Warn("could not load settings for email", zap.Error(err))
		return
	}
	if err := s.mailer.SendPendingPayment(client, b, settings); err != nil {
		s.logger.Warn("pending-payment email failed", zap.String("booking", b.ID), zap.Error(err))
	}
}
