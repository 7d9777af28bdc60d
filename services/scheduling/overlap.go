package scheduling

import (
	"time"

	"stitchtherapy/models"
)

// HasOverlap reports whether the half-open interval [candidateStart,
// candidateEnd) collides with any non-cancelled booking. Bookings without a
// stored duration are treated as the default session length. Back-to-back
// sessions sharing a boundary instant do not overlap.
func HasOverlap(candidateStart, candidateEnd time.Time, existing []models.Booking) bool {
	for _, b := range existing {
		if b.Status == models.BookingCancelled {
			continue
		}
		bStart := b.ScheduledAt
		bEnd := b.EndsAt()
		if candidateStart.Before(bEnd) && bStart.Before(candidateEnd) {
			return true
		}
	}
	return false
}
