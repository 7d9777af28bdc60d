package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bookingRepo "stitchtherapy/database/repository/booking"
	"stitchtherapy/models"
	"stitchtherapy/services/scheduling"

	"go.uber.org/zap"
)

// transitions is the booking lifecycle table. Absent entries are rejected;
// completed and cancelled are terminal.
var transitions = map[string][]string{
	models.BookingPending:   {models.BookingScheduled, models.BookingVerified, models.BookingCancelled},
	models.BookingScheduled: {models.BookingVerified, models.BookingCancelled},
	models.BookingVerified:  {models.BookingCompleted, models.BookingCancelled},
}

func transitionAllowed(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Reschedule moves a booking to a new start inside the same exclusion
// transaction used at creation. Rescheduling is a staff operation: therapists
// may only move their own sessions, and verified bookings may only be moved
// by an admin. Unless the booking was verified, its status resets to
// scheduled.
func (s *DefaultBookingService) Reschedule(actor Actor, id string, newStart time.Time) (*models.Booking, error) {
	if actor.Role != models.RoleTherapist && actor.Role != models.RoleAdmin {
		return nil, models.NewAuthorizationError("only staff can reschedule bookings")
	}

	b, err := s.mustGet(actor, id)
	if err != nil {
		return nil, err
	}
	if b.Terminal() {
		return nil, models.NewConflictError(fmt.Sprintf("cannot reschedule a %s booking", b.Status))
	}
	if newStart.Before(time.Now()) {
		return nil, models.NewValidationError("scheduledAt", "cannot reschedule into the past")
	}
	if b.Status == models.BookingVerified && actor.Role != models.RoleAdmin {
		return nil, models.NewAuthorizationError("only an admin can move a verified booking")
	}

	previous := b.ScheduledAt
	newEnd := newStart.Add(b.Duration())

	// The status reset rides in the same transactional write as the move.
	if b.Status != models.BookingVerified {
		b.Status = models.BookingScheduled
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err = s.bookings.RescheduleExclusive(ctx, b, newStart, func(existing []models.Booking) bool {
		return scheduling.HasOverlap(newStart, newEnd, existing)
	})
	if errors.Is(err, bookingRepo.ErrBookingConflict) {
		return nil, models.NewConflictError("the new time overlaps an existing booking")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking rescheduled",
		zap.String("booking", b.ID),
		zap.Time("from", previous),
		zap.Time("to", newStart))
	s.recordAudit(actor, "booking.reschedule", b.ID, map[string]any{
		"from": previous, "to": newStart,
	})
	s.publish(models.EventBookingUpdated, b)
	s.invalidateSlotCache(b.TherapistID)
	return b, nil
}

// UpdateStatus applies a lifecycle transition. Clients may only cancel their
// own bookings; other transitions are staff operations.
func (s *DefaultBookingService) UpdateStatus(actor Actor, id, newStatus string) (*models.Booking, error) {
	b, err := s.mustGet(actor, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleClient && newStatus != models.BookingCancelled {
		return nil, models.NewAuthorizationError("clients may only cancel bookings")
	}
	if !transitionAllowed(b.Status, newStatus) {
		return nil, models.NewConflictError(fmt.Sprintf("cannot move a %s booking to %s", b.Status, newStatus))
	}

	b.Status = newStatus
	if err := s.bookings.Update(b); err != nil {
		return nil, err
	}

	s.recordAudit(actor, "booking.status", b.ID, map[string]any{"status": newStatus})
	s.publish(models.EventBookingUpdated, b)
	if newStatus == models.BookingCancelled {
		s.invalidateSlotCache(b.TherapistID)
	}
	return b, nil
}

// UpdateNotes patches session notes. Notes are clinical content, so clients
// cannot write them.
func (s *DefaultBookingService) UpdateNotes(actor Actor, id, notes string) (*models.Booking, error) {
	if actor.Role != models.RoleTherapist && actor.Role != models.RoleAdmin {
		return nil, models.NewAuthorizationError("only staff can edit session notes")
	}
	b, err := s.mustGet(actor, id)
	if err != nil {
		return nil, err
	}

	b.Notes = notes
	if err := s.bookings.Update(b); err != nil {
		return nil, err
	}
	s.recordAudit(actor, "booking.notes", b.ID, nil)
	return b, nil
}

// StartCall stamps the call start on a verified booking.
func (s *DefaultBookingService) StartCall(actor Actor, id string) (*models.Booking, error) {
	b, err := s.mustGet(actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingVerified {
		return nil, models.NewConflictError("the call can only start on a verified booking")
	}

	now := time.Now()
	b.CallStartedAt = &now
	if err := s.bookings.Update(b); err != nil {
		return nil, err
	}
	s.recordAudit(actor, "booking.start_call", b.ID, nil)
	return b, nil
}

// EndCall stamps the call end and completes the booking.
func (s *DefaultBookingService) EndCall(actor Actor, id string) (*models.Booking, error) {
	if actor.Role != models.RoleTherapist && actor.Role != models.RoleAdmin {
		return nil, models.NewAuthorizationError("only staff can end the call")
	}
	b, err := s.mustGet(actor, id)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingVerified {
		return nil, models.NewConflictError("no active call on this booking")
	}

	now := time.Now()
	b.CallEndedAt = &now
	b.Status = models.BookingCompleted
	if err := s.bookings.Update(b); err != nil {
		return nil, err
	}
	if s.rooms != nil {
		s.rooms.Announce(b.RoomID, "end-call", nil)
	}
	s.logger.Info("call ended", zap.String("booking", b.ID))
	s.recordAudit(actor, "booking.end_call", b.ID, nil)
	s.publish(models.EventBookingUpdated, b)
	return b, nil
}

// Mute asks every peer in the booking's room to mute a participant.
func (s *DefaultBookingService) Mute(actor Actor, id, participantID string) error {
	if actor.Role != models.RoleTherapist && actor.Role != models.RoleAdmin {
		return models.NewAuthorizationError("only staff can mute participants")
	}
	b, err := s.mustGet(actor, id)
	if err != nil {
		return err
	}
	if b.Status != models.BookingVerified {
		return models.NewConflictError("no active call on this booking")
	}

	if s.rooms != nil {
		data, _ := json.Marshal(map[string]string{"participantId": participantID})
		s.rooms.Announce(b.RoomID, "mute", data)
	}
	s.recordAudit(actor, "booking.mute", b.ID, map[string]any{"participantId": participantID})
	return nil
}

// Summary aggregates booking counts by status for a reporting range:
// "week", "month", or "all".
func (s *DefaultBookingService) Summary(rangeName string) (*models.BookingSummary, error) {
	var since time.Time
	switch rangeName {
	case "week":
		since = time.Now().AddDate(0, 0, -7)
	case "month":
		since = time.Now().AddDate(0, -1, 0)
	case "all", "":
		rangeName = "all"
	default:
		return nil, models.NewValidationError("range", "must be week, month, or all")
	}

	summary, err := s.bookings.CountSummary(since)
	if err != nil {
		return nil, err
	}
	summary.Range = rangeName
	return &summary, nil
}
