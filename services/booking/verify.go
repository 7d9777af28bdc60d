package booking

import (
	"fmt"
	"time"

	"stitchtherapy/config"
	"stitchtherapy/models"
	"stitchtherapy/utils"

	"go.uber.org/zap"
)

const (
	callTokenBytes   = 24
	callLinkLifetime = 2 * time.Hour
)

// VerifyPayment marks a booking's manual payment as confirmed and mints the
// secure call link. Verifying an already-verified booking is a conflict
// unless an admin passes the override flag, which rotates the link.
func (s *DefaultBookingService) VerifyPayment(actor Actor, id string, payment models.PaymentInfo, override bool) (*models.Booking, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleTherapist {
		return nil, models.NewAuthorizationError("only staff can verify payments")
	}

	b, err := s.mustGet(actor, id)
	if err != nil {
		return nil, err
	}
	if b.Terminal() {
		return nil, models.NewConflictError(fmt.Sprintf("booking is already %s", b.Status))
	}
	if b.Status == models.BookingVerified {
		if !override {
			return nil, models.NewConflictError("payment is already verified; pass override to re-verify")
		}
		if actor.Role != models.RoleAdmin {
			return nil, models.NewAuthorizationError("only an admin can override a verified payment")
		}
	}

	rawToken, err := utils.RandomToken(callTokenBytes)
	if err != nil {
		return nil, err
	}

	b.Status = models.BookingVerified
	b.Payment = payment
	b.SecureCall = &models.SecureCall{
		TokenHash: utils.HashToken(rawToken),
		ExpiresAt: b.ScheduledAt.Add(callLinkLifetime),
		Used:      false,
		Link:      fmt.Sprintf("%s/meeting/%s?token=%s", config.AppConfig.ClientOrigin, b.RoomID, rawToken),
	}

	if err := s.bookings.Update(b); err != nil {
		return nil, err
	}

	s.logger.Info("payment verified",
		zap.String("booking", b.ID),
		zap.Bool("override", override))
	s.recordAudit(actor, "booking.verify_payment", b.ID, map[string]any{"override": override})
	s.publish(models.EventBookingPaymentVerified, b)
	s.sendConfirmation(b)
	if s.reminders != nil {
		if err := s.reminders.Schedule(b); err != nil {
			s.logger.Warn("could not schedule reminder", zap.String("booking", b.ID), zap.Error(err))
		}
	}
	return b, nil
}

// ValidateCallToken checks a raw call-link token against the booking that
// owns the room. Only the token's SHA-256 hash is ever stored.
func (s *DefaultBookingService) ValidateCallToken(roomID, rawToken string) (*models.Booking, error) {
	b, err := s.bookings.GetByRoomID(roomID)
	if err != nil {
		return nil, err
	}
	if b == nil || b.SecureCall == nil {
		return nil, models.NewNotFoundError("room", roomID)
	}
	if b.Status != models.BookingVerified {
		return nil, models.NewAuthorizationError("this session is not open for joining")
	}
	if utils.HashToken(rawToken) != b.SecureCall.TokenHash {
		return nil, models.NewAuthorizationError("invalid session token")
	}
	if time.Now().After(b.SecureCall.ExpiresAt) {
		return nil, models.NewAuthorizationError("this session link has expired")
	}

	if !b.SecureCall.Used {
		b.SecureCall.Used = true
		if err := s.bookings.Update(b); err != nil {
			s.logger.Warn("could not mark call token used", zap.String("booking", b.ID), zap.Error(err))
		}
	}
	return b, nil
}

func (s *DefaultBookingService) sendConfirmation(b *models.Booking) {
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
	if err := s.mailer.SendConfirmation(client, b, settings); err != nil {
		s.logger.Warn("confirmation email failed", zap.String("booking", b.ID), zap.Error(err))
	}
}
