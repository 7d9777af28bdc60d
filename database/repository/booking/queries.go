// File: database/repository/booking/queries.go
package bookingRepo

import (
	"fmt"
	"time"

	"stitchtherapy/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindOverlapCandidates returns non-cancelled bookings for the therapist whose
// start instant lies inside [windowStart, windowEnd]. The window must be wide
// enough to cover any booking that could still intersect the interval under
// test; callers pad by OverlapPad on each side.
func (r *MongoBookingRepo) FindOverlapCandidates(therapistID string, windowStart, windowEnd time.Time, excludeID string) ([]models.Booking, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	filter := bson.M{
		"therapistId": therapistID,
		"scheduledAt": bson.M{"$gte": windowStart, "$lte": windowEnd},
		"status":      bson.M{"$ne": models.BookingCancelled},
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}

	opts := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlap candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode overlap candidates: %w", err)
	}
	return bookings, nil
}

// CountSummary aggregates booking counts by status for documents created at or
// after the given instant.
func (r *MongoBookingRepo) CountSummary(since time.Time) (models.BookingSummary, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	var summary models.BookingSummary
	base := bson.M{"createdAt": bson.M{"$gte": since}}

	total, err := r.coll.CountDocuments(ctx, base)
	if err != nil {
		return summary, fmt.Errorf("failed to count bookings: %w", err)
	}
	summary.Total = total

	counts := map[string]*int64{
		models.BookingPending:   &summary.Pending,
		models.BookingScheduled: &summary.Scheduled,
		models.BookingVerified:  &summary.Verified,
		models.BookingCompleted: &summary.Completed,
		models.BookingCancelled: &summary.Cancelled,
	}
	for status, dst := range counts {
		n, err := r.coll.CountDocuments(ctx, bson.M{"createdAt": base["createdAt"], "status": status})
		if err != nil {
			return summary, fmt.Errorf("failed to count %s bookings: %w", status, err)
		}
		*dst = n
	}
	return summary, nil
}
