package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bookingRepo "stitchtherapy/database/repository/booking"
	"stitchtherapy/models"
	"stitchtherapy/services/scheduling"

	"go.uber.org/zap"
)

const slotCacheTTL = 60 * time.Second

func slotCacheKey(therapistID, date string, durationMinutes int) string {
	return fmt.Sprintf("slots:%s:%s:%d", therapistID, date, durationMinutes)
}

// AvailableSlots lists a therapist's bookable slots on a date: their active
// windows expanded into candidates, minus anything colliding with an
// existing booking. Results are cached briefly since this is the hottest
// public read.
func (s *DefaultBookingService) AvailableSlots(therapistID, date string, durationMinutes int) (*models.SlotListing, error) {
	if durationMinutes <= 0 {
		durationMinutes = models.DefaultSessionMinutes
	}

	if cached := s.cachedSlots(therapistID, date, durationMinutes); cached != nil {
		return cached, nil
	}

	therapist, err := s.users.GetByID(therapistID)
	if err != nil {
		return nil, err
	}
	if therapist == nil || therapist.Role != models.RoleTherapist {
		return nil, models.NewNotFoundError("therapist", therapistID)
	}
	timezone := therapist.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	windows, err := s.availability.GetActiveByTherapist(therapistID)
	if err != nil {
		return nil, err
	}

	candidates, err := scheduling.GenerateSlots(windows, date, timezone, durationMinutes)
	if err != nil {
		return nil, err
	}

	open, err := s.filterBooked(therapistID, candidates)
	if err != nil {
		return nil, err
	}

	listing := &models.SlotListing{
		TherapistID: therapistID,
		Date:        date,
		Timezone:    timezone,
		Slots:       open,
	}
	s.storeSlots(therapistID, date, durationMinutes, listing)
	return listing, nil
}

// filterBooked drops candidates that collide with existing bookings. One
// repository query covers the whole day's candidates; it is padded by
// OverlapPad so a booking that starts before the first slot but extends into
// it is still loaded, matching the window the create path checks against.
func (s *DefaultBookingService) filterBooked(therapistID string, candidates []models.SlotCandidate) ([]models.SlotCandidate, error) {
	if len(candidates) == 0 {
		return []models.SlotCandidate{}, nil
	}

	first := candidates[0].Start.Add(-bookingRepo.OverlapPad)
	last := candidates[len(candidates)-1].End.Add(bookingRepo.OverlapPad)
	existing, err := s.bookings.FindOverlapCandidates(therapistID, first, last, "")
	if err != nil {
		return nil, err
	}

	open := make([]models.SlotCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !scheduling.HasOverlap(c.Start, c.End, existing) {
			open = append(open, c)
		}
	}
	return open, nil
}

func (s *DefaultBookingService) cachedSlots(therapistID, date string, durationMinutes int) *models.SlotListing {
	if s.cache == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	raw, err := s.cache.Get(ctx, slotCacheKey(therapistID, date, durationMinutes)).Bytes()
	if err != nil {
		return nil
	}
	var listing models.SlotListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil
	}
	return &listing
}

func (s *DefaultBookingService) storeSlots(therapistID, date string, durationMinutes int, listing *models.SlotListing) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	raw, err := json.Marshal(listing)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, slotCacheKey(therapistID, date, durationMinutes), raw, slotCacheTTL).Err(); err != nil {
		s.logger.Debug("slot cache write failed", zap.Error(err))
	}
}

// invalidateSlotCache clears cached listings for a therapist after any write
// that changes what is bookable.
func (s *DefaultBookingService) invalidateSlotCache(therapistID string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	iter := s.cache.Scan(ctx, 0, fmt.Sprintf("slots:%s:*", therapistID), 100).Iterator()
	for iter.Next(ctx) {
		s.cache.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Debug("slot cache invalidation failed", zap.Error(err))
	}
}
